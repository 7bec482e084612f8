package registry

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestPublishArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts PublishOptions
		want []string
	}{
		{"bare publish", PublishOptions{}, []string{"publish"}},
		{"dist-tag", PublishOptions{Tag: "hotfix"}, []string{"publish", "--tag", "hotfix"}},
		{"force", PublishOptions{Force: true}, []string{"publish", "--force"}},
		{"tag and force", PublishOptions{Tag: "next", Force: true}, []string{"publish", "--tag", "next", "--force"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PublishArgs(tt.opts); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PublishArgs = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnvEnviron(t *testing.T) {
	t.Parallel()

	t.Run("no overrides adds nothing", func(t *testing.T) {
		env := Env{}.Environ()
		for _, kv := range env {
			if strings.HasPrefix(kv, "npm_config_registry=") || strings.HasPrefix(kv, "npm_config__authToken=") {
				t.Errorf("unexpected override %q", kv)
			}
		}
	})

	t.Run("registry and token appended", func(t *testing.T) {
		env := Env{RegistryURL: "https://npm.example", AuthToken: "s3cret"}.Environ()
		var gotRegistry, gotToken bool
		for _, kv := range env {
			switch kv {
			case "npm_config_registry=https://npm.example":
				gotRegistry = true
			case "npm_config__authToken=s3cret":
				gotToken = true
			}
		}
		if !gotRegistry || !gotToken {
			t.Errorf("missing overrides in %d env vars", len(env))
		}
	})
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			"unpublished package",
			errors.New("npm view ghost versions --json: exit status 1: npm error code E404"),
			true,
		},
		{
			"404 in a registry URL is not a missing package",
			errors.New("npm view a versions --json: exit status 1: request to https://npm.example/a/1.0.404 failed"),
			false,
		},
		{
			"404 in a version string is not a missing package",
			errors.New("npm view a@2.404.0 versions --json: exit status 1: network timeout"),
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := notFound(tt.err); got != tt.want {
				t.Errorf("notFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestParseVersionsJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    []string
		wantErr bool
	}{
		{"array of versions", `["1.0.0", "1.1.0"]`, []string{"1.0.0", "1.1.0"}, false},
		{"single version string", `"1.0.0"`, []string{"1.0.0"}, false},
		{"empty output", ``, nil, false},
		{"garbage", `{not json`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVersionsJSON(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseVersionsJSON(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
