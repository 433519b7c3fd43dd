package biometry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

//go:embed exam.schema.json
var examSchemaJSON string

// defaultPrinter formats schema violation messages.
var defaultPrinter = message.NewPrinter(language.English)

var examSchema *jsonschema.Schema

func init() {
	var doc any
	if err := json.Unmarshal([]byte(examSchemaJSON), &doc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded exam.schema.json: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("exam.schema.json", doc); err != nil {
		panic(fmt.Sprintf("failed to add exam schema resource: %v", err))
	}
	sch, err := compiler.Compile("exam.schema.json")
	if err != nil {
		panic(fmt.Sprintf("failed to compile exam schema: %v", err))
	}
	examSchema = sch
}

// LoadExam reads an exam from a YAML or JSON file, validates it against the
// embedded schema and returns the decoded exam. Validation failures are
// returned as a single descriptive error listing every violation.
func LoadExam(path string) (*Exam, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading exam file: %w", err)
	}
	return ParseExam(data)
}

// ParseExam validates and decodes raw exam bytes (YAML or JSON; JSON is a
// subset of YAML so one decoder covers both).
func ParseExam(data []byte) (*Exam, error) {
	if errs := ValidateExamBytes(data); len(errs) > 0 {
		return nil, fmt.Errorf("invalid exam:\n  %s", strings.Join(errs, "\n  "))
	}

	var exam Exam
	if err := yaml.Unmarshal(data, &exam); err != nil {
		return nil, fmt.Errorf("decoding exam: %w", err)
	}
	if exam.OD != nil {
		exam.OD.Eye = OD
	}
	if exam.OS != nil {
		exam.OS.Eye = OS
	}
	return &exam, nil
}

// ValidateExamBytes validates raw exam bytes against the exam schema and
// returns one message per violation, empty when valid.
func ValidateExamBytes(data []byte) []string {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []string{fmt.Sprintf("parse error: %v", err)}
	}

	err := examSchema.Validate(jsonCompatible(doc))
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

// jsonCompatible normalizes YAML-decoded values for schema validation.
func jsonCompatible(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v2 := range val {
			result[k] = jsonCompatible(v2)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v2 := range val {
			result[i] = jsonCompatible(v2)
		}
		return result
	default:
		return val
	}
}
