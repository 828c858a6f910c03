package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// OutputMap stores per-provider generation outputs in a jsonb column,
// keyed by provider id.
type OutputMap map[string]string

// Scan implements the sql.Scanner interface
func (m *OutputMap) Scan(value interface{}) error {
	if value == nil {
		*m = OutputMap{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			*m = OutputMap{}
			return nil
		}
		return json.Unmarshal(v, m)
	case string:
		if v == "" {
			*m = OutputMap{}
			return nil
		}
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into OutputMap", value)
	}
}

// Value implements the driver.Valuer interface
func (m OutputMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Draft is one generation round: the prompt, every provider's candidate
// output, and the eventual publish outcome. Created once per fan-out call
// and mutated once when the operator publishes.
type Draft struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Prompt         string         `gorm:"type:text;not null" json:"prompt"`
	Outputs        OutputMap      `gorm:"type:jsonb" json:"outputs"`
	SelectedModel  string         `gorm:"size:100" json:"selected_model"`
	FinalText      string         `gorm:"type:text" json:"final_text"`
	ImageURL       string         `gorm:"size:2048" json:"image_url"`
	LinkedInPostID string         `gorm:"column:linkedin_post_id;size:255" json:"linkedin_post_id"`
	Published      bool           `gorm:"default:false" json:"published"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}
