// Package config decodes the YAML source-configuration document described
// in spec.md §6 into plain structs, the same tagged-struct decoding style
// the teacher uses for its introspected core.Table/core.Column (JSON tags
// there, YAML tags here). Env-var substitution is not part of decoding: it
// is applied afterwards to the decoded connection_uri value, by
// core.ParseConnectionURI.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"dbsnap/internal/core"
	"dbsnap/internal/transformer"
)

// DbTable names one (database, table) pair in the YAML schema.
type DbTable struct {
	Database string `yaml:"database"`
	Table    string `yaml:"table"`
}

func (d DbTable) toTableID() core.TableID {
	return core.TableID{Database: d.Database, Table: d.Table}
}

// ColumnTransformer binds one column to a transformer configuration.
type ColumnTransformer struct {
	Name        string
	Transformer transformer.Config
}

// UnmarshalYAML decodes the adjacently-tagged {name, transformer_name,
// transformer_options} shape from spec.md §6 into a transformer.Config.
func (c *ColumnTransformer) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Name               string    `yaml:"name"`
		TransformerName    string    `yaml:"transformer_name"`
		TransformerOptions yaml.Node `yaml:"transformer_options"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.Name = raw.Name
	c.Transformer.Name = raw.TransformerName

	switch raw.TransformerName {
	case transformer.IDMobileNumber:
		var opts transformer.MobileNumberOptions
		if raw.TransformerOptions.Kind != 0 {
			var yopts struct {
				CountryCode int `yaml:"country_code"`
				Length      int `yaml:"length"`
			}
			if err := raw.TransformerOptions.Decode(&yopts); err != nil {
				return fmt.Errorf("column %q: decoding mobile-number options: %w", raw.Name, err)
			}
			opts = transformer.MobileNumberOptions{CountryCode: yopts.CountryCode, Length: yopts.Length}
		} else {
			opts = transformer.MobileNumberOptionsDefault()
		}
		c.Transformer.MobileNumber = &opts
	case transformer.IDRedacted:
		opts := transformer.RedactedOptionsDefault()
		if raw.TransformerOptions.Kind != 0 {
			var yopts struct {
				Character string `yaml:"character"`
				Length    int    `yaml:"length"`
			}
			if err := raw.TransformerOptions.Decode(&yopts); err != nil {
				return fmt.Errorf("column %q: decoding redacted options: %w", raw.Name, err)
			}
			if yopts.Character != "" {
				opts.Character = yopts.Character
			}
			if yopts.Length > 0 {
				opts.Length = yopts.Length
			}
		}
		c.Transformer.Redacted = &opts
	case transformer.IDHstoreAttr:
		var yopts struct {
			Transformers []ColumnTransformerAttr `yaml:"transformers"`
		}
		if err := raw.TransformerOptions.Decode(&yopts); err != nil {
			return fmt.Errorf("column %q: decoding hstore-attr options: %w", raw.Name, err)
		}
		c.Transformer.HstoreAttr = &transformer.HstoreAttrOptions{Transformers: toAttrOptions(yopts.Transformers)}
	case transformer.IDJSONAttr:
		var yopts struct {
			Transformers []ColumnTransformerAttr `yaml:"transformers"`
		}
		if err := raw.TransformerOptions.Decode(&yopts); err != nil {
			return fmt.Errorf("column %q: decoding json-attr options: %w", raw.Name, err)
		}
		c.Transformer.JSONAttr = &transformer.JSONAttrOptions{Transformers: toAttrOptions(yopts.Transformers)}
	}

	return nil
}

// ColumnTransformerAttr is one {attribute, transformer_name,
// transformer_options} entry inside a compound transformer's
// transformer_options.transformers list.
type ColumnTransformerAttr struct {
	Attribute   string
	Transformer transformer.Config
}

func (c *ColumnTransformerAttr) UnmarshalYAML(value *yaml.Node) error {
	var inner ColumnTransformer
	var raw struct {
		Attribute          string    `yaml:"attribute"`
		TransformerName    string    `yaml:"transformer_name"`
		TransformerOptions yaml.Node `yaml:"transformer_options"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	// Reuse ColumnTransformer's decoding by re-keying "attribute" as
	// "name" via a synthetic node rather than duplicating the per-kind
	// transformer_options switch.
	node := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "name"},
			{Kind: yaml.ScalarNode, Value: raw.Attribute},
			{Kind: yaml.ScalarNode, Value: "transformer_name"},
			{Kind: yaml.ScalarNode, Value: raw.TransformerName},
			{Kind: yaml.ScalarNode, Value: "transformer_options"},
			&raw.TransformerOptions,
		},
	}
	if err := inner.UnmarshalYAML(node); err != nil {
		return err
	}
	c.Attribute = raw.Attribute
	c.Transformer = inner.Transformer
	return nil
}

func toAttrOptions(in []ColumnTransformerAttr) []transformer.AttrOption {
	out := make([]transformer.AttrOption, len(in))
	for i, a := range in {
		out[i] = transformer.AttrOption{Attribute: a.Attribute, Config: a.Transformer}
	}
	return out
}

// TransformerTable is one {database, table, columns} block from
// spec.md §6's `transformers` list.
type TransformerTable struct {
	Database string              `yaml:"database"`
	Table    string              `yaml:"table"`
	Columns  []ColumnTransformer `yaml:"columns"`
}

// SubsetStrategyConfig decodes the adjacently-tagged
// {strategy_name, strategy_options} shape into a core.SubsetStrategy.
type SubsetStrategyConfig struct {
	Strategy core.SubsetStrategy
}

func (s *SubsetStrategyConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		StrategyName    string    `yaml:"strategy_name"`
		StrategyOptions yaml.Node `yaml:"strategy_options"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	switch raw.StrategyName {
	case "random":
		var opts struct {
			Percent int `yaml:"percent"`
		}
		if err := raw.StrategyOptions.Decode(&opts); err != nil {
			return fmt.Errorf("decoding random subset options: %w", err)
		}
		s.Strategy = core.SubsetStrategy{Kind: core.SubsetRandom, Percent: opts.Percent}
	case "foreign-key":
		var opts struct {
			Condition string `yaml:"condition"`
		}
		if err := raw.StrategyOptions.Decode(&opts); err != nil {
			return fmt.Errorf("decoding foreign-key subset options: %w", err)
		}
		s.Strategy = core.SubsetStrategy{Kind: core.SubsetForeignKey, Condition: opts.Condition}
	default:
		s.Strategy = core.SubsetStrategy{Kind: core.SubsetNone}
	}
	return nil
}

// DatabaseSubset is one {database, table, strategy_name, strategy_options,
// passthrough_tables} entry from spec.md §6's `database_subset` list.
type DatabaseSubset struct {
	Database           string
	Table              string
	Strategy           core.SubsetStrategy
	PassthroughTables []string
}

func (d *DatabaseSubset) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Database           string    `yaml:"database"`
		Table              string    `yaml:"table"`
		StrategyName       string    `yaml:"strategy_name"`
		StrategyOptions    yaml.Node `yaml:"strategy_options"`
		PassthroughTables []string  `yaml:"passthrough_tables"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	strategy := SubsetStrategyConfig{}
	strategyNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "strategy_name"},
			{Kind: yaml.ScalarNode, Value: raw.StrategyName},
			{Kind: yaml.ScalarNode, Value: "strategy_options"},
			&raw.StrategyOptions,
		},
	}
	if err := strategy.UnmarshalYAML(strategyNode); err != nil {
		return err
	}

	d.Database = raw.Database
	d.Table = raw.Table
	d.Strategy = strategy.Strategy
	d.PassthroughTables = raw.PassthroughTables
	return nil
}

// SourceConfig is the decoded YAML document for spec.md §6's "Source
// configuration".
type SourceConfig struct {
	ConnectionURI   string             `yaml:"connection_uri"`
	Compression     bool               `yaml:"compression"`
	Transformers    []TransformerTable `yaml:"transformers"`
	Skip            []DbTable          `yaml:"skip"`
	OnlyTables      []DbTable          `yaml:"only_tables"`
	DatabaseSubset  []DatabaseSubset   `yaml:"database_subset"`
}

// ParseSourceConfig decodes a YAML document into a SourceConfig.
func ParseSourceConfig(data []byte) (SourceConfig, error) {
	var sc SourceConfig
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return SourceConfig{}, fmt.Errorf("parsing source configuration: %w", err)
	}
	return sc, nil
}
