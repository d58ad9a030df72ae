package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// VersionDescriptor is the per-version manifest stored at
// <versions>/<id>/<id>.json. Unknown fields are ignored on decode.
type VersionDescriptor struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
	// Base version this descriptor extends (modified clients).
	InheritsFrom string `json:"inheritsFrom,omitempty"`
	MainClass    string `json:"mainClass,omitempty"`
	// Assets is the legacy asset-index id field; AssetIndex.ID takes precedence.
	Assets     string      `json:"assets,omitempty"`
	AssetIndex *AssetIndex `json:"assetIndex,omitempty"`
	Downloads  *Downloads  `json:"downloads,omitempty"`
	Libraries  []Library   `json:"libraries,omitempty"`
	// MinecraftArguments is the legacy flat argument blob.
	MinecraftArguments string     `json:"minecraftArguments,omitempty"`
	Arguments          *Arguments `json:"arguments,omitempty"`
}

// AssetIndexID returns the asset index id, falling back to the legacy field.
func (d *VersionDescriptor) AssetIndexID() string {
	if d.AssetIndex != nil && d.AssetIndex.ID != "" {
		return d.AssetIndex.ID
	}
	return d.Assets
}

// HasStructuredArguments reports whether the modern grammar carries any entry.
func (d *VersionDescriptor) HasStructuredArguments() bool {
	return d.Arguments != nil && (len(d.Arguments.JVM) > 0 || len(d.Arguments.Game) > 0)
}

// AssetIndex references the asset index document of a version.
type AssetIndex struct {
	ID        string `json:"id"`
	SHA1      string `json:"sha1,omitempty"`
	Size      int64  `json:"size,omitempty"`
	TotalSize int64  `json:"totalSize,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Downloads holds the main artifact references of a version.
type Downloads struct {
	Client *Artifact `json:"client,omitempty"`
	Server *Artifact `json:"server,omitempty"`
}

// Artifact is a downloadable file with its expected digest.
type Artifact struct {
	// Path is relative to the libraries root; empty for version jars.
	Path string `json:"path,omitempty"`
	URL  string `json:"url,omitempty"`
	SHA1 string `json:"sha1,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// Library is one classpath or native dependency.
type Library struct {
	// Name is the colon-delimited coordinate group:artifact:version[:classifier].
	Name      string            `json:"name"`
	Downloads *LibraryDownloads `json:"downloads,omitempty"`
	// Natives maps a platform name to a classifier key, possibly containing ${arch}.
	Natives map[string]string `json:"natives,omitempty"`
	Rules   []Rule            `json:"rules,omitempty"`
	Extract *ExtractRules     `json:"extract,omitempty"`
}

// LibraryDownloads carries the main artifact and the classifier variants.
type LibraryDownloads struct {
	Artifact    *Artifact           `json:"artifact,omitempty"`
	Classifiers map[string]Artifact `json:"classifiers,omitempty"`
}

// ExtractRules lists archive path prefixes skipped when unpacking natives.
type ExtractRules struct {
	Exclude []string `json:"exclude,omitempty"`
}

// Artifact returns the main artifact reference, or nil.
func (l *Library) Artifact() *Artifact {
	if l.Downloads == nil {
		return nil
	}
	return l.Downloads.Artifact
}

// IsNativeOnly reports whether the library only ships classifier bundles.
func (l *Library) IsNativeOnly() bool {
	return len(l.Natives) > 0 && l.Artifact() == nil
}

// RuleAction is allow or disallow.
type RuleAction string

const (
	ActionAllow    RuleAction = "allow"
	ActionDisallow RuleAction = "disallow"
)

// Rule gates a library or an argument entry.
type Rule struct {
	Action   RuleAction      `json:"action"`
	OS       *OSConstraint   `json:"os,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

// OSConstraint restricts a rule to a platform name and/or architecture.
type OSConstraint struct {
	Name    string `json:"name,omitempty"`
	Arch    string `json:"arch,omitempty"`
	Version string `json:"version,omitempty"`
}

// Arguments is the structured argument grammar.
type Arguments struct {
	Game []Argument `json:"game,omitempty"`
	JVM  []Argument `json:"jvm,omitempty"`
}

// Argument is either a literal token or a rule-gated list of tokens.
type Argument struct {
	// Literal is set for plain string entries.
	Literal string
	Rules   []Rule
	Values  []string
	literal bool
}

// LiteralArgument builds a plain string entry.
func LiteralArgument(s string) Argument { return Argument{Literal: s, literal: true} }

// IsLiteral reports whether the entry is a plain string.
func (a Argument) IsLiteral() bool { return a.literal }

// Tokens returns the raw (unexpanded) tokens of the entry in source order.
func (a Argument) Tokens() []string {
	if a.literal {
		return []string{a.Literal}
	}
	return a.Values
}

type ruledArgument struct {
	Rules []Rule          `json:"rules,omitempty"`
	Value json.RawMessage `json:"value"`
}

// UnmarshalJSON accepts "token", {"rules":[...],"value":"token"} and
// {"rules":[...],"value":["a","b"]}.
func (a *Argument) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = LiteralArgument(s)
		return nil
	}
	var ra ruledArgument
	if err := json.Unmarshal(b, &ra); err != nil {
		return fmt.Errorf("argument entry: %w", err)
	}
	out := Argument{Rules: ra.Rules}
	v := bytes.TrimSpace(ra.Value)
	switch {
	case len(v) == 0 || bytes.Equal(v, []byte("null")):
	case v[0] == '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		out.Values = []string{s}
	default:
		if err := json.Unmarshal(v, &out.Values); err != nil {
			return fmt.Errorf("argument value: %w", err)
		}
	}
	*a = out
	return nil
}

// MarshalJSON mirrors UnmarshalJSON.
func (a Argument) MarshalJSON() ([]byte, error) {
	if a.literal {
		return json.Marshal(a.Literal)
	}
	var value any = a.Values
	if len(a.Values) == 1 {
		value = a.Values[0]
	}
	return json.Marshal(struct {
		Rules []Rule `json:"rules,omitempty"`
		Value any    `json:"value"`
	}{a.Rules, value})
}

// AssetIndexDocument is the asset index file at <assets>/indexes/<id>.json.
type AssetIndexDocument struct {
	Objects        map[string]AssetObject `json:"objects"`
	Virtual        bool                   `json:"virtual,omitempty"`
	MapToResources bool                   `json:"map_to_resources,omitempty"`
}

// AssetObject is one hash-named entry of an asset index.
type AssetObject struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}
