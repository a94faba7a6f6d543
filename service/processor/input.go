package processor

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/viant/structology/conv"
)

func newConverter() *conv.Converter {
	options := conv.DefaultOptions()
	options.ClonePointerData = true
	options.IgnoreUnmapped = true
	options.AccessUnexported = true
	return conv.NewConverter(options)
}

// toInput converts a structured input document into the run input map.
// Maps are copied, JSON text is decoded and anything else goes
// through the converter.
func (s *Service) toInput(input interface{}) (map[string]interface{}, error) {
	switch actual := input.(type) {
	case nil:
		return map[string]interface{}{}, nil
	case map[string]interface{}:
		return maps.Clone(actual), nil
	case []byte:
		return decodeInput(actual)
	case string:
		return decodeInput([]byte(actual))
	case json.RawMessage:
		return decodeInput(actual)
	}
	ret := map[string]interface{}{}
	if err := s.converter.Convert(input, &ret); err != nil {
		// structs without a registered mapping still encode as JSON
		data, mErr := json.Marshal(input)
		if mErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return decodeInput(data)
	}
	return ret, nil
}

func decodeInput(data []byte) (map[string]interface{}, error) {
	ret := map[string]interface{}{}
	if len(data) == 0 {
		return ret, nil
	}
	if err := json.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return ret, nil
}
