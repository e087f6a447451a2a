package environment_test

import (
	"testing"

	"github.com/felixgeelhaar/bivvy/internal/domain/config"
	"github.com/felixgeelhaar/bivvy/internal/domain/environment"
	"github.com/felixgeelhaar/bivvy/internal/domain/platform"
	"github.com/stretchr/testify/assert"
)

var native = platform.New(platform.OSLinux, "amd64", platform.EnvNative)

func lookup(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	staging := config.Settings{
		Environments: map[string]config.EnvironmentConfig{
			"staging": {Detect: []config.DetectRule{{Env: "DEPLOY_TARGET", Value: "staging"}}},
			"preview": {Detect: []config.DetectRule{{Env: "PREVIEW_ID"}}},
		},
	}

	tests := []struct {
		name         string
		settings     config.Settings
		env          map[string]string
		platform     *platform.Platform
		flag         string
		expectName   string
		expectSource environment.Source
	}{
		{name: "flag wins", settings: config.Settings{DefaultEnvironment: "staging"}, env: map[string]string{"CI": "true"}, flag: "ci", expectName: "ci", expectSource: environment.SourceFlag},
		{name: "configured default", settings: config.Settings{DefaultEnvironment: "staging"}, env: map[string]string{"CI": "true"}, expectName: "staging", expectSource: environment.SourceConfig},
		{name: "custom rule with value", settings: staging, env: map[string]string{"DEPLOY_TARGET": "staging", "CI": "1"}, expectName: "staging", expectSource: environment.SourceDetected},
		{name: "custom rule value mismatch", settings: staging, env: map[string]string{"DEPLOY_TARGET": "prod"}, expectName: "development", expectSource: environment.SourceDefault},
		{name: "custom rule presence", settings: staging, env: map[string]string{"PREVIEW_ID": ""}, expectName: "preview", expectSource: environment.SourceDetected},
		{name: "github actions", env: map[string]string{"GITHUB_ACTIONS": "true"}, expectName: "ci", expectSource: environment.SourceDetected},
		{name: "azure pipelines", env: map[string]string{"TF_BUILD": "True"}, expectName: "ci", expectSource: environment.SourceDetected},
		{name: "azure flag not true", env: map[string]string{"TF_BUILD": "false"}, expectName: "development", expectSource: environment.SourceDefault},
		{name: "codespaces", env: map[string]string{"CODESPACES": "true"}, expectName: "codespace", expectSource: environment.SourceDetected},
		{name: "gitpod", env: map[string]string{"GITPOD_WORKSPACE_ID": "abc"}, expectName: "codespace", expectSource: environment.SourceDetected},
		{name: "container", platform: platform.New(platform.OSLinux, "amd64", platform.EnvDocker), expectName: "docker", expectSource: environment.SourceDetected},
		{name: "fallback", expectName: "development", expectSource: environment.SourceDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			plat := tt.platform
			if plat == nil {
				plat = native
			}
			r := environment.NewResolver(tt.settings, environment.WithLookupEnv(lookup(tt.env)), environment.WithPlatform(plat))
			got := r.Resolve(tt.flag)

			assert.Equal(t, tt.expectName, got.Name)
			assert.Equal(t, tt.expectSource, got.Source)
		})
	}
}

func TestResolved_ProvidedAndDefaultWorkflow(t *testing.T) {
	t.Parallel()

	settings := config.Settings{Environments: map[string]config.EnvironmentConfig{
		"ci": {DefaultWorkflow: "ci-setup", ProvidedRequirements: []string{"postgres-server", "redis-server"}},
	}}
	r := environment.NewResolver(settings, environment.WithLookupEnv(lookup(nil)), environment.WithPlatform(native))

	ci := r.Resolve("ci")
	assert.Equal(t, "ci-setup", ci.DefaultWorkflow())
	assert.Equal(t, map[string]bool{"postgres-server": true, "redis-server": true}, ci.Provided())
	assert.Equal(t, "ci (--env flag)", ci.String())

	dev := r.Resolve("")
	assert.Equal(t, config.DefaultWorkflow, dev.DefaultWorkflow())
	assert.Empty(t, dev.Provided())
}

func TestKnown(t *testing.T) {
	t.Parallel()

	settings := config.Settings{Environments: map[string]config.EnvironmentConfig{"staging": {}, "ci": {}}}
	r := environment.NewResolver(settings, environment.WithLookupEnv(lookup(nil)), environment.WithPlatform(native))
	assert.Equal(t, []string{"ci", "codespace", "development", "docker", "staging"}, r.Known())
}
