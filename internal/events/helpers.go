package events

import (
	"encoding/json"
	"fmt"
)

// SetCommandStartData sets the Data field with CommandStartData in a type-safe way.
func (e *TerminalEvent) SetCommandStartData(data CommandStartData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert CommandStartData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetCommandStartData retrieves CommandStartData from the Data field.
func (e *TerminalEvent) GetCommandStartData() (*CommandStartData, error) {
	var data CommandStartData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse CommandStartData: %w", err)
	}
	return &data, nil
}

// SetCommandEndData sets the Data field with CommandEndData in a type-safe way.
func (e *TerminalEvent) SetCommandEndData(data CommandEndData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert CommandEndData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetCommandEndData retrieves CommandEndData from the Data field.
func (e *TerminalEvent) GetCommandEndData() (*CommandEndData, error) {
	var data CommandEndData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse CommandEndData: %w", err)
	}
	return &data, nil
}

// SetOutputChunkData sets the Data field with OutputChunkData in a type-safe way.
func (e *TerminalEvent) SetOutputChunkData(data OutputChunkData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert OutputChunkData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetOutputChunkData retrieves OutputChunkData from the Data field.
func (e *TerminalEvent) GetOutputChunkData() (*OutputChunkData, error) {
	var data OutputChunkData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse OutputChunkData: %w", err)
	}
	return &data, nil
}

// SetExitStatusData sets the Data field with ExitStatusData in a type-safe way.
func (e *TerminalEvent) SetExitStatusData(data ExitStatusData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert ExitStatusData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetExitStatusData retrieves ExitStatusData from the Data field.
func (e *TerminalEvent) GetExitStatusData() (*ExitStatusData, error) {
	var data ExitStatusData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse ExitStatusData: %w", err)
	}
	return &data, nil
}

// SetCwdChangeData sets the Data field with CwdChangeData in a type-safe way.
func (e *TerminalEvent) SetCwdChangeData(data CwdChangeData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert CwdChangeData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetCwdChangeData retrieves CwdChangeData from the Data field.
func (e *TerminalEvent) GetCwdChangeData() (*CwdChangeData, error) {
	var data CwdChangeData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse CwdChangeData: %w", err)
	}
	return &data, nil
}

// SetEnvChangeData sets the Data field with EnvChangeData in a type-safe way.
func (e *TerminalEvent) SetEnvChangeData(data EnvChangeData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert EnvChangeData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetEnvChangeData retrieves EnvChangeData from the Data field.
func (e *TerminalEvent) GetEnvChangeData() (*EnvChangeData, error) {
	var data EnvChangeData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse EnvChangeData: %w", err)
	}
	return &data, nil
}

// SetSessionStartData sets the Data field with SessionStartData in a type-safe way.
func (e *TerminalEvent) SetSessionStartData(data SessionStartData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert SessionStartData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetSessionStartData retrieves SessionStartData from the Data field.
func (e *TerminalEvent) GetSessionStartData() (*SessionStartData, error) {
	var data SessionStartData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse SessionStartData: %w", err)
	}
	return &data, nil
}

// SetSessionEndData sets the Data field with SessionEndData in a type-safe way.
func (e *TerminalEvent) SetSessionEndData(data SessionEndData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert SessionEndData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetSessionEndData retrieves SessionEndData from the Data field.
func (e *TerminalEvent) GetSessionEndData() (*SessionEndData, error) {
	var data SessionEndData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse SessionEndData: %w", err)
	}
	return &data, nil
}

// structToMap converts a struct to map[string]interface{} using JSON marshaling.
func structToMap(data interface{}) (map[string]interface{}, error) {
	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// mapToStruct converts a map[string]interface{} to a struct using JSON unmarshaling.
func mapToStruct(dataMap map[string]interface{}, target interface{}) error {
	bytes, err := json.Marshal(dataMap)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, target)
}
