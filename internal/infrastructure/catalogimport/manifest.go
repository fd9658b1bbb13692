package catalogimport

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

var (
	versionPattern  = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z._-]{0,39}$`)
	checksumPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// Column keys of the reference dataset
const (
	ColumnCode                       = "code"
	ColumnOfficialDescription        = "official_description"
	ColumnKind                       = "kind"
	ColumnCategory                   = "category"
	ColumnUsefulLife                 = "useful_life"
	ColumnImportFlag                 = "import_flag"
	ColumnDiscountedGoodsDescription = "discounted_goods_description"
)

// Manifest describes a dataset release:
//
//	version: "2024.1"
//	source: "Ministry of Finance"
//	file: cabys-2024.1.csv
//	delimiter: ";"
//	sha256: 9f86d0...
//	columns:
//	  code: codigo
//	  kind: bien_o_servicio
type Manifest struct {
	Version   string            `yaml:"version"`
	Source    string            `yaml:"source"`
	File      string            `yaml:"file"`
	Delimiter string            `yaml:"delimiter"`
	SHA256    string            `yaml:"sha256"`
	Columns   map[string]string `yaml:"columns"`
}

// LoadManifest decodes and validates a manifest. Unknown keys are rejected.
func LoadManifest(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("manifest is empty")
		}
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the manifest fields
func (m *Manifest) Validate() error {
	if !versionPattern.MatchString(m.Version) {
		return fmt.Errorf("manifest version %q must be 1-40 letters, digits, '.', '_' or '-'", m.Version)
	}
	if m.Delimiter != "" && utf8.RuneCountInString(m.Delimiter) != 1 {
		return fmt.Errorf("manifest delimiter %q must be a single character", m.Delimiter)
	}
	m.SHA256 = strings.ToLower(strings.TrimSpace(m.SHA256))
	if m.SHA256 != "" && !checksumPattern.MatchString(m.SHA256) {
		return errors.New("manifest sha256 must be 64 hex characters")
	}
	for key := range m.Columns {
		if _, ok := defaultColumns[key]; !ok {
			return fmt.Errorf("manifest maps unknown column %q", key)
		}
	}
	return nil
}

// DelimiterRune returns the configured delimiter, comma by default
func (m *Manifest) DelimiterRune() rune {
	if m.Delimiter == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(m.Delimiter)
	return r
}

var defaultColumns = map[string]string{
	ColumnCode:                       ColumnCode,
	ColumnOfficialDescription:        ColumnOfficialDescription,
	ColumnKind:                       ColumnKind,
	ColumnCategory:                   ColumnCategory,
	ColumnUsefulLife:                 ColumnUsefulLife,
	ColumnImportFlag:                 ColumnImportFlag,
	ColumnDiscountedGoodsDescription: ColumnDiscountedGoodsDescription,
}

// Header returns the CSV header holding the column
func (m *Manifest) Header(column string) string {
	if h, ok := m.Columns[column]; ok && h != "" {
		return h
	}
	return defaultColumns[column]
}
