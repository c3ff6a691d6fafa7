package models

import (
	"encoding/json"
	"fmt"
)

// The classification backend transports QA history and metrics as two-element
// string arrays rather than objects. Keep that shape on the wire.

func (p QAPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Question, p.Answer})
}

func (p *QAPair) UnmarshalJSON(data []byte) error {
	var tuple [2]string
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("qa pair: %w", err)
	}
	p.Question, p.Answer = tuple[0], tuple[1]
	return nil
}

func (p MetricPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Quantity, p.Description})
}

func (p *MetricPair) UnmarshalJSON(data []byte) error {
	var tuple [2]string
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("metric pair: %w", err)
	}
	p.Quantity, p.Description = tuple[0], tuple[1]
	return nil
}
