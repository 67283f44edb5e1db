package blog

import (
	"fmt"

	"github.com/solorad/blog-crud/pkg/models"
)

// DecodeImport parses a JSON array of objects into documents ready for bulk insert
func DecodeImport(data []byte) ([]models.Fields, error) {
	var list []interface{}
	if err := decodeJSON(data, &list); err != nil {
		return nil, fmt.Errorf("decode import: %w", err)
	}
	if list == nil {
		return nil, fmt.Errorf("decode import: not an array")
	}
	docs := make([]models.Fields, 0, len(list))
	for i, v := range list {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("decode import: entry %d is not an object", i)
		}
		docs = append(docs, models.Fields(m).Clean())
	}
	return docs, nil
}
