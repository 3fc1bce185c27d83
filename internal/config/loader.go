package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/iquiquesec/ciberseguridad/internal/types"
)

type YAMLPolicy struct {
	ID         string                 `yaml:"id"`
	Name       string                 `yaml:"name"`
	PolicyType string                 `yaml:"policy_type"`
	Active     *bool                  `yaml:"active,omitempty"`
	Settings   map[string]interface{} `yaml:"settings"`
}

type YAMLData struct {
	Policies []YAMLPolicy `yaml:"policies"`
}

var validPolicyTypes = map[types.PolicyType]bool{
	types.PolicyRansomware: true,
	types.PolicyNetwork:    true,
	types.PolicyWeb:        true,
	types.PolicyBehavioral: true,
}

// LoadPolicyCatalog reads the security policies seeded into the database at startup.
func LoadPolicyCatalog(filePath string) ([]types.SecurityPolicy, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy catalog: %w", err)
	}
	return ParsePolicyCatalog(data)
}

func ParsePolicyCatalog(data []byte) ([]types.SecurityPolicy, error) {
	var yamlData YAMLData
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	policies := make([]types.SecurityPolicy, 0, len(yamlData.Policies))
	for _, yp := range yamlData.Policies {
		id, err := uuid.Parse(yp.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid policy ID %s: %w", yp.ID, err)
		}
		if yp.Name == "" {
			return nil, fmt.Errorf("policy %s has no name", yp.ID)
		}
		policyType := types.PolicyType(yp.PolicyType)
		if !validPolicyTypes[policyType] {
			return nil, fmt.Errorf("policy %s has unknown type %q", yp.ID, yp.PolicyType)
		}

		settings := yp.Settings
		if settings == nil {
			settings = map[string]interface{}{}
		}
		raw, err := json.Marshal(settings)
		if err != nil {
			return nil, fmt.Errorf("policy %s settings: %w", yp.ID, err)
		}

		active := true
		if yp.Active != nil {
			active = *yp.Active
		}
		policies = append(policies, types.SecurityPolicy{
			ID:         id,
			Name:       yp.Name,
			PolicyType: policyType,
			Settings:   raw,
			IsActive:   active,
		})
	}
	return policies, nil
}
