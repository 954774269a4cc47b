package rewrite

import "github.com/cloud-it/template-app-configurator/internal/config"

const (
	PhasePresentation   = "presentation"
	PhaseInfrastructure = "infrastructure"
)

var presentationFiles = []string{
	"app/pages/index.tsx",
	"app/pages/admin.tsx",
	"app/pages/signin.tsx",
	"app/components/AuthenticatedHeader.tsx",
}

var infrastructureFiles = []string{
	"terraform/backend/variables.tf",
	"terraform/backend/main.tf",
	"terraform/frontend/variables.tf",
	"terraform/frontend/main.tf",
}

// PresentationTargets returns the page and component files carrying the
// template brand.
func PresentationTargets() TargetSet {
	return TargetSet{Name: PhasePresentation, Files: append([]string(nil), presentationFiles...)}
}

// InfrastructureTargets returns the Terraform files carrying template
// resource names.
func InfrastructureTargets() TargetSet {
	return TargetSet{Name: PhaseInfrastructure, Files: append([]string(nil), infrastructureFiles...)}
}

// PresentationRules maps template brand tokens to the configured branding.
// "Template" runs before "Template App", so the latter only matches text a
// previous rule produced.
func PresentationRules(cfg config.ProjectConfig) RuleSet {
	return RuleSet{rules: []Rule{
		{Search: "CloudAcademy", Replace: cfg.Branding.Name},
		{Search: "PROYECTS", Replace: cfg.Project.Subtitle},
		{Search: "Template", Replace: cfg.Branding.Name},
		{Search: "APP", Replace: cfg.Project.Subtitle},
		{Search: "template.cloud-it.com.ar", Replace: cfg.Domain.Base},
		{Search: "Aplicación Template", Replace: cfg.Project.DisplayName},
		{Search: "Template App", Replace: cfg.Project.DisplayName},
	}}
}

// InfrastructureRules maps template resource names and URLs to the
// configured deployment.
func InfrastructureRules(cfg config.ProjectConfig) RuleSet {
	return RuleSet{rules: []Rule{
		{Search: "https://proyectos.cloudacademy.ar", Replace: cfg.Domain.BaseURL},
		{Search: "https://template.cloud-it.com.ar", Replace: cfg.Domain.BaseURL},
		{Search: "proyecto_template", Replace: cfg.DatabaseName()},
		{Search: "noreply@cloud-it.com.ar", Replace: cfg.Email.FromEmail},
		{Search: "PostConfirmationFn-Template", Replace: "PostConfirmationFn-" + cfg.Project.Name},
		{Search: "post_confirmation_lambda_role_template", Replace: "post_confirmation_lambda_role_" + cfg.Database.NameSuffix},
		{Search: "template-app", Replace: cfg.Project.Name},
	}}
}
