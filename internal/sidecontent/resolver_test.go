package sidecontent

import (
	"reflect"
	"testing"

	"pkt.systems/sourcecast/schema"
)

func TestResolvePixNFlixChapterFour(t *testing.T) {
	cfg := schema.WorkspaceConfig{
		Chapter:         4,
		Variant:         schema.VariantDefault,
		ExternalLibrary: schema.ExternalPixNFlix,
	}
	got := TabIDs(Resolve(cfg))
	want := []schema.TabID{
		schema.TabIntroduction,
		schema.TabVideoDisplay,
		schema.TabDataVisualizer,
		schema.TabInspector,
		schema.TabEnvVisualizer,
		schema.TabRemoteExecution,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("desktop tabs: got %v, want %v", got, want)
	}

	cfg.Mobile = true
	got = TabIDs(Resolve(cfg))
	want = []schema.TabID{
		schema.TabVideoDisplay,
		schema.TabDataVisualizer,
		schema.TabInspector,
		schema.TabEnvVisualizer,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("mobile tabs: got %v, want %v", got, want)
	}
}

func TestResolveRules(t *testing.T) {
	tests := []struct {
		name string
		cfg  schema.WorkspaceConfig
		want []schema.TabID
	}{
		{
			name: "chapter one default",
			cfg:  schema.WorkspaceConfig{Chapter: 1, Variant: schema.VariantDefault, ExternalLibrary: schema.ExternalNone},
			want: []schema.TabID{schema.TabIntroduction, schema.TabSubstVisualizer, schema.TabRemoteExecution},
		},
		{
			name: "chapter two lazy",
			cfg:  schema.WorkspaceConfig{Chapter: 2, Variant: schema.VariantLazy},
			want: []schema.TabID{schema.TabIntroduction, schema.TabDataVisualizer, schema.TabRemoteExecution},
		},
		{
			name: "chapter three concurrent",
			cfg:  schema.WorkspaceConfig{Chapter: 3, Variant: schema.VariantConcurrent},
			want: []schema.TabID{schema.TabIntroduction, schema.TabDataVisualizer, schema.TabRemoteExecution},
		},
		{
			name: "chapter three non-det",
			cfg:  schema.WorkspaceConfig{Chapter: 3, Variant: schema.VariantNonDet},
			want: []schema.TabID{schema.TabIntroduction, schema.TabDataVisualizer, schema.TabRemoteExecution},
		},
		{
			name: "machine learning",
			cfg:  schema.WorkspaceConfig{Chapter: 1, ExternalLibrary: schema.ExternalMachineLearning},
			want: []schema.TabID{schema.TabIntroduction, schema.TabFaceAPIDisplay, schema.TabSubstVisualizer, schema.TabRemoteExecution},
		},
		{
			name: "all libraries",
			cfg:  schema.WorkspaceConfig{Chapter: 2, ExternalLibrary: schema.ExternalAll},
			want: []schema.TabID{schema.TabIntroduction, schema.TabVideoDisplay, schema.TabDataVisualizer, schema.TabSubstVisualizer, schema.TabRemoteExecution},
		},
		{
			name: "remote execution",
			cfg:  schema.WorkspaceConfig{Chapter: 4, RemoteExecution: true},
			want: []schema.TabID{schema.TabIntroduction, schema.TabRemoteExecution},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TabIDs(Resolve(tt.cfg)); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveIsPure(t *testing.T) {
	for chapter := schema.Chapter(1); chapter <= 4; chapter++ {
		for _, lib := range []schema.ExternalLibrary{schema.ExternalNone, schema.ExternalPixNFlix, schema.ExternalMachineLearning, schema.ExternalAll} {
			for _, mobile := range []bool{false, true} {
				cfg := schema.WorkspaceConfig{Chapter: chapter, Variant: schema.VariantDefault, ExternalLibrary: lib, Mobile: mobile}
				first := Resolve(cfg)
				second := Resolve(cfg)
				if !reflect.DeepEqual(first, second) {
					t.Fatalf("resolution differs for %+v", cfg)
				}
				ids := TabIDs(first)
				hasIntro := containsTab(first, schema.TabIntroduction)
				hasRemote := containsTab(first, schema.TabRemoteExecution)
				if mobile && (hasIntro || hasRemote) {
					t.Fatalf("mobile resolution kept desktop-only tabs: %v", ids)
				}
				if !mobile && (ids[0] != schema.TabIntroduction || ids[len(ids)-1] != schema.TabRemoteExecution) {
					t.Fatalf("desktop resolution must start with introduction and end with remote execution: %v", ids)
				}
			}
		}
	}
}

func TestResolveActiveRedirects(t *testing.T) {
	desktop := schema.WorkspaceConfig{Chapter: 1}
	mobile := schema.WorkspaceConfig{Chapter: 1, Mobile: true}
	tests := []struct {
		name   string
		cfg    schema.WorkspaceConfig
		active schema.TabID
		want   schema.TabID
	}{
		{"mobile introduction", mobile, schema.TabIntroduction, schema.TabMobileEditor},
		{"mobile remote", mobile, schema.TabRemoteExecution, schema.TabMobileEditor},
		{"mobile run stays", mobile, schema.TabMobileEditorRun, schema.TabMobileEditorRun},
		{"mobile stepper stays", mobile, schema.TabSubstVisualizer, schema.TabSubstVisualizer},
		{"mobile vanished", mobile, schema.TabVideoDisplay, schema.TabMobileEditor},
		{"desktop mobile editor", desktop, schema.TabMobileEditor, schema.TabIntroduction},
		{"desktop mobile run", desktop, schema.TabMobileEditorRun, schema.TabIntroduction},
		{"desktop vanished", desktop, schema.TabVideoDisplay, schema.TabIntroduction},
		{"desktop valid", desktop, schema.TabSubstVisualizer, schema.TabSubstVisualizer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveActive(tt.cfg, tt.active); got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsValidActiveTabAfterLibrarySwitch(t *testing.T) {
	cfg := schema.WorkspaceConfig{Chapter: 2, ExternalLibrary: schema.ExternalPixNFlix}
	if !IsValidActiveTab(cfg, Resolve(cfg), schema.TabVideoDisplay) {
		t.Fatalf("expected video display to be valid with PIXNFLIX")
	}
	cfg.ExternalLibrary = schema.ExternalRunes
	if IsValidActiveTab(cfg, Resolve(cfg), schema.TabVideoDisplay) {
		t.Fatalf("expected video display to vanish with RUNES")
	}
}

func TestResolverCachesOnConfigValue(t *testing.T) {
	var r Resolver
	cfg := schema.WorkspaceConfig{Chapter: 3}
	first := r.Tabs(cfg)
	first[0].Label = "mutated"
	second := r.Tabs(schema.WorkspaceConfig{Chapter: 3})
	if second[0].Label != "Introduction" {
		t.Fatalf("cache leaked caller mutation: %q", second[0].Label)
	}
	r.Tabs(schema.WorkspaceConfig{Chapter: 4})
	hits, misses := r.Stats()
	if hits != 1 || misses != 2 {
		t.Fatalf("expected 1 hit and 2 misses, got %d/%d", hits, misses)
	}
	if got := r.Active(schema.WorkspaceConfig{Chapter: 4}, schema.TabSubstVisualizer); got != schema.TabIntroduction {
		t.Fatalf("expected redirect to introduction, got %s", got)
	}
}

func TestNormalizeLibrary(t *testing.T) {
	cfg := NormalizeLibrary(schema.WorkspaceConfig{ExternalLibrary: "PLOTLY"})
	if cfg.ExternalLibrary != schema.ExternalNone {
		t.Fatalf("expected unknown library reset, got %s", cfg.ExternalLibrary)
	}
	cfg = NormalizeLibrary(schema.WorkspaceConfig{ExternalLibrary: "PLOTLY", RemoteExecution: true})
	if cfg.ExternalLibrary != "PLOTLY" {
		t.Fatalf("expected remote selection kept, got %s", cfg.ExternalLibrary)
	}
}

func TestSourcecastTabs(t *testing.T) {
	ids := TabIDs(SourcecastTabs())
	want := []schema.TabID{schema.TabIntroduction, schema.TabDataVisualizer, schema.TabInspector, schema.TabEnvVisualizer}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
}

func TestResolverSourceOverridesResolve(t *testing.T) {
	r := Resolver{Source: SourcecastSource}
	cfg := schema.WorkspaceConfig{Chapter: 1, Variant: schema.VariantDefault, ExternalLibrary: schema.ExternalNone}
	if got := TabIDs(r.Tabs(cfg)); len(got) != 4 || got[1] != schema.TabDataVisualizer {
		t.Fatalf("unexpected player tabs %v", got)
	}
	if got := r.Active(cfg, schema.TabSubstVisualizer); got != schema.TabIntroduction {
		t.Fatalf("expected stepper to redirect to introduction, got %q", got)
	}
	cfg.Mobile = true
	if got := r.Active(cfg, schema.TabIntroduction); got != schema.TabMobileEditor {
		t.Fatalf("expected mobile editor, got %q", got)
	}
	if got := TabIDs(r.Tabs(cfg)); len(got) != 3 || got[0] != schema.TabDataVisualizer {
		t.Fatalf("unexpected mobile player tabs %v", got)
	}
}
