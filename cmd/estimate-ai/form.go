package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/tsanders/estimate-ai/pkg/estimate"
	"github.com/tsanders/estimate-ai/pkg/templates"
)

// runProjectForm prompts for the project fields that flags left empty.
func runProjectForm(p *estimate.ProjectInfo, template *string, available []templates.Template) error {
	options := make([]huh.Option[string], 0, len(available))
	for _, t := range available {
		options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", t.Name, t.Variant), t.Name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("프로젝트명").
				Value(&p.Name).
				Validate(required("프로젝트명")),
			huh.NewText().
				Title("프로젝트 설명").
				Value(&p.Description).
				Validate(required("프로젝트 설명")),
			huh.NewInput().
				Title("고객사").
				Placeholder(estimate.DefaultClientName).
				Value(&p.Client),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("예산").
				Placeholder("3000만원 또는 협의").
				Value(&p.Budget),
			huh.NewInput().
				Title("기간").
				Placeholder("3개월").
				Value(&p.Timeline),
			huh.NewText().
				Title("추가 요구사항 (선택)").
				Value(&p.AdditionalRequirements),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("템플릿").
				Options(options...).
				Value(template),
		),
	).WithShowHelp(false)

	return form.Run()
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s을(를) 입력하세요", field)
		}
		return nil
	}
}
