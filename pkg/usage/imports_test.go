package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(src string) []ImportDeclaration {
	return ParseImports(src, StripLiterals(src))
}

func TestParseImports_NamedDefaultAndAlias(t *testing.T) {
	decls := parse(`
import React, { useState } from 'react';
import { Button as UIButton, Card, useTheme, type CardProps } from '@lib/ui';
import Modal from "./Modal";
import {
  Table,
  TableRow as Row,
} from '@lib/ui/table';
`)
	require.Len(t, decls, 4)

	assert.Equal(t, "react", decls[0].Source)
	assert.Equal(t, "React", decls[0].DefaultLocalName)
	assert.Empty(t, decls[0].NamedLocalNames)

	assert.Equal(t, "@lib/ui", decls[1].Source)
	assert.Equal(t, []string{"UIButton", "Card"}, decls[1].NamedLocalNames)

	assert.Equal(t, "./Modal", decls[2].Source)
	assert.Equal(t, "Modal", decls[2].DefaultLocalName)

	assert.Equal(t, "@lib/ui/table", decls[3].Source)
	assert.Equal(t, []string{"Table", "Row"}, decls[3].NamedLocalNames)
}

func TestParseImports_IgnoresNonRenderable(t *testing.T) {
	decls := parse(`
import type { ButtonProps } from '@lib/ui';
import * as Icons from '@lib/icons';
import { useForm } from 'react-hook-form';
import './styles.css';
export { Button } from '@lib/ui';
const s = "import { Fake } from '@lib/ui'";
`)
	assert.Empty(t, decls)
}

func TestParseImports_DefaultWithNamespace(t *testing.T) {
	decls := parse(`import Lib, * as NS from '@lib/ui';`)
	require.Len(t, decls, 1)
	assert.Equal(t, "Lib", decls[0].DefaultLocalName)
}

func TestParseImports_LowercaseDefaultDropped(t *testing.T) {
	assert.Empty(t, parse(`import styled from 'styled-components';`))
}

func testConfig() ResolvedConfig {
	return ResolvedConfig{
		Libraries: []LibrarySpec{
			{Name: "lib", ImportSources: []string{"@lib/ui"}, ExcludeSources: []string{"@lib/ui/theme"}},
			{Name: "icons", ImportSources: []string{"@lib/icons", "@lib/ui/theme"}},
		},
		OtherUIPatterns: []string{"@mui/", "framer-motion"},
	}
}

func TestResolver_Classify(t *testing.T) {
	r := NewResolver(testConfig())
	tests := []struct {
		source string
		want   SourceCategory
	}{
		{"@lib/ui", Library("lib")},
		{"@lib/ui/button", Library("lib")},
		{"@lib/ui/theme", Library("icons")},
		{"@lib/icons", Library("icons")},
		{"@mui/material", OtherUI},
		{"framer-motion", OtherUI},
		{"./Widget", Internal},
		{"../shared/Widget", Internal},
		{"/abs/Widget", Internal},
		{"@/components/ui/button", Internal},
		{"@app/primitives", Internal},
		{"react", Uncategorized},
		{"lodash", Uncategorized},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Classify(tt.source))
		})
	}
}

func TestResolver_ExcludeIsScopedToLibrary(t *testing.T) {
	cfg := ResolvedConfig{Libraries: []LibrarySpec{
		{Name: "lib", ImportSources: []string{"@lib/ui"}, ExcludeSources: []string{"@lib/ui/theme"}},
	}}
	r := NewResolver(cfg)
	assert.NotEqual(t, Library("lib"), r.Classify("@lib/ui/theme"))
	assert.Equal(t, Uncategorized, r.Classify("@lib/ui/theme"))
}

func TestResolver_EmptyPatternsIgnored(t *testing.T) {
	r := NewResolver(ResolvedConfig{
		Libraries:       []LibrarySpec{{Name: "lib", ImportSources: []string{"", "@lib/ui"}, ExcludeSources: []string{""}}},
		OtherUIPatterns: []string{""},
	})
	assert.Equal(t, Library("lib"), r.Classify("@lib/ui"))
	assert.Equal(t, Uncategorized, r.Classify("react"))
}

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(testConfig())
	names, cats := r.Resolve(parse(`
import { Button } from '@lib/ui';
import { Widget } from './Widget';
import { Box } from '@mui/material';
import { Thing } from 'somewhere';
import { Button as Again } from './Button';
`))
	assert.Equal(t, map[string]SourceCategory{
		"Button": Library("lib"),
		"Widget": Internal,
		"Box":    OtherUI,
		"Again":  Internal,
	}, names)
	assert.Equal(t, []SourceCategory{Library("lib"), OtherUI, Internal}, cats)
}

func TestResolvedConfig_Validate(t *testing.T) {
	assert.NoError(t, testConfig().Validate())

	err := ResolvedConfig{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one tracked library")

	err = ResolvedConfig{Libraries: []LibrarySpec{
		{Name: "a", ImportSources: []string{"x"}},
		{Name: "a"},
		{Name: " "},
	}}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate library name "a"`)
	assert.Contains(t, err.Error(), "at least one import source")
	assert.Contains(t, err.Error(), "libraries[2]: name is required")
}

func TestParseCategory_RoundTrip(t *testing.T) {
	for _, cat := range []SourceCategory{Library("acme"), OtherUI, Internal} {
		got, ok := ParseCategory(cat.String())
		require.True(t, ok)
		assert.Equal(t, cat, got)
	}
	_, ok := ParseCategory("library:")
	assert.False(t, ok)
}
