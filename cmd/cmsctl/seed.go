package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/blockcms/internal/component"
	"github.com/blockcms/internal/service"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type seedPage struct {
	input  service.PageInput
	blocks []seedBlock
}

type seedBlock struct {
	blockType string
	overrides map[string]any
}

// demoPages 生成一组演示页面，方便本地开发时直接预览各个组件。
var demoPages = []seedPage{
	{
		input: service.PageInput{Title: "Home", Slug: "home", Status: "published", IsHomepage: true},
		blocks: []seedBlock{
			{blockType: "hero_banner"},
			{blockType: "stats_section"},
			{blockType: "feature_grid"},
			{blockType: "testimonials"},
			{blockType: "cta_section"},
		},
	},
	{
		input: service.PageInput{Title: "About", Slug: "about", Status: "published"},
		blocks: []seedBlock{
			{blockType: "rich_text", overrides: map[string]any{
				"title": "About us",
				"body":  "We build things that last.\n\n- Honest pricing\n- Fast turnaround\n- Real people on the phone",
			}},
			{blockType: "team_profiles"},
			{blockType: "process_steps"},
		},
	},
	{
		input: service.PageInput{Title: "Contact", Slug: "contact", Status: "published"},
		blocks: []seedBlock{
			{blockType: "contact_section"},
			{blockType: "faq_section"},
		},
	},
}

func (a *app) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create demo pages; existing slugs are skipped",
		RunE: func(cmd *cobra.Command, _ []string) error {
			gdb, err := a.open()
			if err != nil {
				return err
			}
			return seedDemoPages(cmd.OutOrStdout(), a.pageService(gdb), component.Default())
		},
	}
}

func seedDemoPages(out io.Writer, pages *service.PageService, catalog *component.Registry) error {
	for _, demo := range demoPages {
		if _, err := pages.GetBySlug(demo.input.Slug); err == nil {
			fmt.Fprintf(out, "/%s exists, skipped\n", demo.input.Slug)
			continue
		} else if !errors.Is(err, service.ErrPageNotFound) {
			return err
		}

		input := demo.input
		for _, b := range demo.blocks {
			data, ok := catalog.DefaultData(b.blockType)
			if !ok {
				return fmt.Errorf("seed: unknown component type %q", b.blockType)
			}
			if data == nil {
				data = map[string]any{}
			}
			for key, value := range b.overrides {
				data[key] = value
			}
			input.Content = append(input.Content, component.Block{ID: uuid.NewString(), Type: b.blockType, Data: data})
		}

		page, err := pages.Create(input)
		if err != nil {
			return fmt.Errorf("seed /%s: %w", input.Slug, err)
		}
		fmt.Fprintf(out, "/%s created with %d blocks\n", page.Slug, len(page.Content))
	}
	return nil
}
