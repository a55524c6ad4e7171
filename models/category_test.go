package models_test

import (
	"encoding/json"
	"testing"

	"catalog-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCategoryJSON_Parent(t *testing.T) {
	parentID, _ := primitive.ObjectIDFromHex("65a000000000000000000001")
	childID, _ := primitive.ObjectIDFromHex("65a000000000000000000002")

	bare := models.Category{ID: childID, Name: "Downlights", Parent: &parentID, Level: models.LevelSubcategory}
	b, err := json.Marshal(bare)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "65a000000000000000000001", out["parent"])

	populated := bare
	populated.ParentRef = &models.Ref{ID: parentID, Name: "Lighting"}
	b, err = json.Marshal(populated)
	require.NoError(t, err)
	out = nil
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, map[string]interface{}{"_id": "65a000000000000000000001", "name": "Lighting"}, out["parent"])
	assert.Equal(t, "Downlights", out["name"])
	assert.EqualValues(t, 1, out["level"])

	root := models.Category{ID: parentID, Name: "Lighting", Subcategories: []models.Category{populated}}
	b, err = json.Marshal(root)
	require.NoError(t, err)
	out = nil
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Nil(t, out["parent"])
	subs := out["subcategories"].([]interface{})
	assert.Equal(t, "Lighting", subs[0].(map[string]interface{})["parent"].(map[string]interface{})["name"])
}
