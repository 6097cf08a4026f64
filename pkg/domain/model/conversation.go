package model

type AddStep int

const (
	AddStepName AddStep = iota
	AddStepDescription
	AddStepPrice
	AddStepUnit
	AddStepImage
)

type EditStep int

const (
	EditStepChoosingField EditStep = iota
	EditStepEnteringValue
)

type EditField string

const (
	FieldName        EditField = "name"
	FieldDescription EditField = "description"
	FieldPrice       EditField = "price"
	FieldUnit        EditField = "unit"
	FieldImage       EditField = "image"
	FieldActive      EditField = "active"
)

// ConversationState is the per-chat multi-turn flow state. Exactly one of
// Add/Edit is non-nil; a chat with no state at all is idle.
type ConversationState struct {
	Add  *AddFlow
	Edit *EditFlow
}

type AddFlow struct {
	Step  AddStep
	Draft ProductDraft
}

type EditFlow struct {
	ProductID int64
	Step      EditStep
	Field     EditField
}

// Notifier sends a text message to a chat. Send reports delivery as a plain
// boolean; SendAsync is fire-and-forget and never blocks the caller.
type Notifier interface {
	Send(chatID int64, text string) bool
	SendAsync(chatID int64, text string)
}
