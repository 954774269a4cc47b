package artifact

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"go.uber.org/zap"

	"github.com/cloud-it/template-app-configurator/internal/config"
	"github.com/cloud-it/template-app-configurator/internal/report"
	"github.com/cloud-it/template-app-configurator/internal/storage"
)

// Phase is the report phase of generated artifacts.
const Phase = "artifacts"

//go:embed templates/*.tmpl
var templateFS embed.FS

var templateCache sync.Map

// Spec pairs an embedded template with the file it fully replaces.
type Spec struct {
	Template string
	Output   string
}

var defaultSpecs = []Spec{
	{Template: "app.config.js.tmpl", Output: "app/config/app.config.js"},
	{Template: "terraform.tfvars.tmpl", Output: "terraform/backend/terraform.tfvars"},
	{Template: "README.md.tmpl", Output: "README.md"},
}

// DefaultSpecs returns the runtime config module, the Terraform variables
// file and the project README, in generation order.
func DefaultSpecs() []Spec {
	return append([]Spec(nil), defaultSpecs...)
}

// Generator renders artifacts from the project configuration. Every call
// rewrites every artifact.
type Generator struct {
	fs     storage.FileSystem
	logger *zap.Logger
	now    func() time.Time
	specs  []Spec
}

// Option customises a Generator.
type Option func(*Generator)

// WithClock sets the source of the generation timestamp.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithSpecs replaces the default artifact list.
func WithSpecs(specs ...Spec) Option {
	return func(g *Generator) {
		g.specs = append([]Spec(nil), specs...)
	}
}

// New creates a Generator writing through fs.
func New(fs storage.FileSystem, logger *zap.Logger, opts ...Option) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Generator{
		fs:     fs,
		logger: logger,
		now:    time.Now,
		specs:  DefaultSpecs(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders and writes each artifact in order. A failing artifact
// does not stop the others.
func (g *Generator) Generate(cfg config.ProjectConfig) []report.Outcome {
	data := templateData{ProjectConfig: cfg, GeneratedAt: g.now().UTC()}

	outcomes := make([]report.Outcome, 0, len(g.specs))
	for _, spec := range g.specs {
		outcomes = append(outcomes, g.generate(spec, data))
	}
	return outcomes
}

func (g *Generator) generate(spec Spec, data templateData) report.Outcome {
	logger := g.logger.With(zap.String("file", spec.Output), zap.String("template", spec.Template))
	outcome := report.Outcome{Phase: Phase, Path: spec.Output}

	content, err := renderTemplate(spec.Template, data)
	if err != nil {
		logger.Error("render artifact", zap.Error(err))
		outcome.Status = report.StatusFailed
		outcome.Err = fmt.Errorf("render %s: %w", spec.Template, err)
		return outcome
	}

	if err := g.fs.WriteFile(spec.Output, []byte(content)); err != nil {
		logger.Error("write artifact", zap.Error(err))
		outcome.Status = report.StatusFailed
		outcome.Err = fmt.Errorf("write %s: %w", spec.Output, err)
		return outcome
	}

	logger.Info("artifact generated")
	outcome.Status = report.StatusGenerated
	return outcome
}

// Render returns the content the named template produces for cfg at the
// given time without writing anything.
func Render(name string, cfg config.ProjectConfig, at time.Time) (string, error) {
	return renderTemplate(name, templateData{ProjectConfig: cfg, GeneratedAt: at.UTC()})
}

type templateData struct {
	config.ProjectConfig
	GeneratedAt time.Time
}

func renderTemplate(name string, data any) (string, error) {
	tmpl, err := loadTemplate(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func loadTemplate(name string) (*template.Template, error) {
	if value, ok := templateCache.Load(name); ok {
		return value.(*template.Template), nil
	}
	tmpl, err := template.New(name).
		Option("missingkey=error").
		Funcs(sprig.TxtFuncMap()).
		Funcs(template.FuncMap{
			"jsString":    jsString,
			"hclString":   hclString,
			"commentLine": commentLine,
		}).
		ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return nil, err
	}
	templateCache.Store(name, tmpl)
	return tmpl, nil
}

var jsEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
)

// jsString renders s as a single-quoted JavaScript string literal.
func jsString(s string) string {
	return "'" + jsEscaper.Replace(s) + "'"
}

var hclEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"${", "$${",
	"%{", "%%{",
)

// hclString renders s as a double-quoted HCL string without interpolation.
func hclString(s string) string {
	return `"` + hclEscaper.Replace(s) + `"`
}

var lineBreaks = strings.NewReplacer(
	"\r\n", " ",
	"\r", " ",
	"\n", " ",
	"\u2028", " ",
	"\u2029", " ",
)

// commentLine folds line breaks so s stays inside a single-line comment.
func commentLine(s string) string {
	return lineBreaks.Replace(s)
}
