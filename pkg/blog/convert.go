package blog

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	v1 "github.com/solorad/blog-crud/pkg/api/v1"
	"github.com/solorad/blog-crud/pkg/models"
)

func toStruct(item models.BlogItem) *structpb.Struct {
	s := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(item.Fields)+1)}
	for k, v := range item.Fields {
		s.Fields[k] = toValue(v)
	}
	s.Fields[v1.IDField] = structpb.NewStringValue(item.ID)
	return s
}

// toValue maps store values onto JSON-compatible protobuf values.
// Types without a JSON form are rendered as text.
func toValue(v interface{}) *structpb.Value {
	switch t := v.(type) {
	case time.Time:
		return structpb.NewStringValue(t.Format(time.RFC3339Nano))
	case map[string]interface{}:
		s := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(t))}
		for k, e := range t {
			s.Fields[k] = toValue(e)
		}
		return structpb.NewStructValue(s)
	case []interface{}:
		l := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(t))}
		for _, e := range t {
			l.Values = append(l.Values, toValue(e))
		}
		return structpb.NewListValue(l)
	}
	if pv, err := structpb.NewValue(v); err == nil {
		return pv
	}
	return structpb.NewStringValue(fmt.Sprint(v))
}
