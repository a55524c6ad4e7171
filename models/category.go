package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category levels. Only two levels exist: roots and their direct children.
const (
	LevelRoot        = 0
	LevelSubcategory = 1
)

type Category struct {
	ID        primitive.ObjectID  `json:"_id,omitempty" bson:"_id,omitempty"`
	Name      string              `json:"name" bson:"name"`
	Parent    *primitive.ObjectID `json:"parent" bson:"parent"` // nil for root categories
	Level     int                 `json:"level" bson:"level"`
	CreatedAt time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt" bson:"updatedAt"`

	// Subcategories is filled on read paths that expose the hierarchy.
	Subcategories []Category `json:"subcategories,omitempty" bson:"-"`
	// ParentRef is the populated parent. When set it replaces the bare id
	// in JSON.
	ParentRef *Ref `json:"-" bson:"-"`
}

func (c Category) MarshalJSON() ([]byte, error) {
	type plain Category
	if c.ParentRef == nil {
		return json.Marshal(plain(c))
	}
	return json.Marshal(struct {
		plain
		Parent *Ref `json:"parent"`
	}{plain(c), c.ParentRef})
}

// LevelFor returns the level a category with the given parent must have.
func LevelFor(parent *primitive.ObjectID) int {
	if parent == nil {
		return LevelRoot
	}
	return LevelSubcategory
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.Parent == nil
}
