package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/yuipii/strawberry-website-bot/pkg/domain/model"
)

// Conversation drives the multi-turn admin flows (add product, edit
// product) over inbound chat messages. One state per chat at most; a chat
// with no state is idle. StartAdd and StartEdit unconditionally overwrite
// any flow already in progress for that chat.
type Conversation interface {
	Active(chatID int64) bool
	StartAdd(chatID int64)
	StartEdit(chatID int64, productID int64)
	HandleText(chatID int64, text string)
}

func NewConversation(catalog Catalog, notifier model.Notifier) Conversation {
	return &conversation{
		catalog:  catalog,
		notifier: notifier,
		states:   make(map[int64]*model.ConversationState),
	}
}

type conversation struct {
	mu       sync.Mutex
	catalog  Catalog
	notifier model.Notifier
	states   map[int64]*model.ConversationState
}

func (c *conversation) Active(chatID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.states[chatID]
	return ok
}

func (c *conversation) StartAdd(chatID int64) {
	c.mu.Lock()
	c.states[chatID] = &model.ConversationState{
		Add: &model.AddFlow{Step: model.AddStepName},
	}
	c.mu.Unlock()

	c.notifier.Send(chatID, "Введите название продукта:")
}

func (c *conversation) StartEdit(chatID int64, productID int64) {
	product, err := c.catalog.Find(productID)
	if err != nil {
		c.notifier.Send(chatID, "❌ Продукт не найден")
		return
	}

	c.mu.Lock()
	c.states[chatID] = &model.ConversationState{
		Edit: &model.EditFlow{ProductID: productID, Step: model.EditStepChoosingField},
	}
	c.mu.Unlock()

	c.notifier.Send(chatID, formatEditPrompt(product))
}

func (c *conversation) HandleText(chatID int64, text string) {
	c.mu.Lock()
	state, ok := c.states[chatID]
	c.mu.Unlock()
	if !ok {
		return
	}

	switch {
	case state.Add != nil:
		c.handleAddStep(chatID, state.Add, text)
	case state.Edit != nil:
		c.handleEditStep(chatID, state.Edit, text)
	}
}

func (c *conversation) handleAddStep(chatID int64, flow *model.AddFlow, text string) {
	switch flow.Step {
	case model.AddStepName:
		flow.Draft.Name = text
		flow.Step = model.AddStepDescription
		c.notifier.Send(chatID, "Введите описание продукта:")

	case model.AddStepDescription:
		flow.Draft.Description = text
		flow.Step = model.AddStepPrice
		c.notifier.Send(chatID, "Введите цену продукта (только число):")

	case model.AddStepPrice:
		price, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			c.notifier.Send(chatID, "❌ Неверный формат цены. Введите число:")
			return
		}
		flow.Draft.Price = price
		flow.Step = model.AddStepUnit
		c.notifier.Send(chatID, "Введите единицу измерения (кг, шт, корзина и т.д.):")

	case model.AddStepUnit:
		flow.Draft.Unit = text
		flow.Step = model.AddStepImage
		c.notifier.Send(chatID, "Введите URL изображения продукта:")

	case model.AddStepImage:
		flow.Draft.Image = text
		product, _ := c.catalog.Create(model.Product{
			Name:        flow.Draft.Name,
			Description: flow.Draft.Description,
			Price:       flow.Draft.Price,
			Unit:        flow.Draft.Unit,
			Image:       flow.Draft.Image,
			Active:      true,
		})

		c.clear(chatID)
		c.notifier.Send(chatID, fmt.Sprintf("✅ Продукт '%s' успешно добавлен!", escapeHTML(product.Name)))
		c.notifier.Send(chatID, formatProductList(c.catalog.All()))
	}
}

var editFieldTokens = map[string]model.EditField{
	"1": model.FieldName, "name": model.FieldName,
	"2": model.FieldDescription, "description": model.FieldDescription,
	"3": model.FieldPrice, "price": model.FieldPrice,
	"4": model.FieldUnit, "unit": model.FieldUnit,
	"5": model.FieldImage, "image": model.FieldImage,
	"6": model.FieldActive, "active": model.FieldActive,
}

func (c *conversation) handleEditStep(chatID int64, flow *model.EditFlow, text string) {
	switch flow.Step {
	case model.EditStepChoosingField:
		field, ok := editFieldTokens[strings.ToLower(text)]
		if !ok {
			c.notifier.Send(chatID, "❌ Неверное поле. Попробуйте снова:")
			return
		}

		product, err := c.catalog.Find(flow.ProductID)
		if err != nil {
			c.clear(chatID)
			c.notifier.Send(chatID, "❌ Продукт не найден")
			return
		}

		flow.Field = field
		flow.Step = model.EditStepEnteringValue

		if field == model.FieldActive {
			c.notifier.Send(chatID, "Введите новое значение активности (true/false):")
		} else {
			c.notifier.Send(chatID, fmt.Sprintf("Текущее значение: %s\nВведите новое значение:", currentValue(product, field)))
		}

	case model.EditStepEnteringValue:
		patch, err := buildPatch(flow.Field, text)
		if err != nil {
			c.notifier.Send(chatID, "❌ Неверный формат значения. Попробуйте снова:")
			return
		}

		if _, err := c.catalog.Update(flow.ProductID, patch); errors.Is(err, model.ErrProductNotFound) {
			c.clear(chatID)
			c.notifier.Send(chatID, "❌ Продукт не найден")
			return
		}

		c.clear(chatID)
		c.notifier.Send(chatID, fmt.Sprintf("✅ Поле '%s' успешно обновлено!", flow.Field))
	}
}

func (c *conversation) clear(chatID int64) {
	c.mu.Lock()
	delete(c.states, chatID)
	c.mu.Unlock()
}

func currentValue(p model.Product, field model.EditField) string {
	switch field {
	case model.FieldName:
		return p.Name
	case model.FieldDescription:
		return p.Description
	case model.FieldPrice:
		return strconv.FormatInt(p.Price, 10)
	case model.FieldUnit:
		return p.Unit
	case model.FieldImage:
		return p.Image
	default:
		return strconv.FormatBool(p.Active)
	}
}

func buildPatch(field model.EditField, text string) (model.ProductUpdate, error) {
	var patch model.ProductUpdate
	switch field {
	case model.FieldName:
		patch.Name = &text
	case model.FieldDescription:
		patch.Description = &text
	case model.FieldPrice:
		price, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return patch, err
		}
		patch.Price = &price
	case model.FieldUnit:
		patch.Unit = &text
	case model.FieldImage:
		patch.Image = &text
	case model.FieldActive:
		active := strings.EqualFold(text, "true")
		patch.Active = &active
	}
	return patch, nil
}
