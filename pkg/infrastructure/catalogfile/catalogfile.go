package catalogfile

import (
	"encoding/json"
	"os"

	"github.com/yuipii/strawberry-website-bot/pkg/domain/model"
)

// Store reads and writes the catalog document: a JSON array of products,
// overwritten wholesale on every save.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load() ([]model.Product, error) {
	file, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	var products []model.Product
	if err := json.Unmarshal(file, &products); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) Save(products []model.Product) error {
	jsonData, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, jsonData, 0666)
}
