package util

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("line exceeds %d characters: %q", Wrap, line)
		}
	}

	if got := WrapString("  short   text "); got != "short text" {
		t.Errorf("expected whitespace to be normalized, got %q", got)
	}
}

func TestParseSerializer(t *testing.T) {
	for _, name := range []string{"json", "gob", "binary"} {
		s, err := ParseSerializer(name)
		if err != nil {
			t.Errorf("serializer %s: %v", name, err)
			continue
		}
		if s.Name() != name {
			t.Errorf("serializer %s reports name %s", name, s.Name())
		}
	}
	if _, err := ParseSerializer("xml"); err == nil {
		t.Error("expected an error for an unknown serializer")
	}
}

func TestGetClientConfigSplitsEndpoints(t *testing.T) {
	viper.Set("transport-endpoints", "http://a:8080, http://b:8080,")
	viper.Set("timeout", 7)
	viper.Set("transport-retries", 2)
	t.Cleanup(viper.Reset)

	conf := GetClientConfig()
	if len(conf.Endpoints) != 2 || conf.Endpoints[1] != "http://b:8080" {
		t.Errorf("unexpected endpoints %v", conf.Endpoints)
	}
	if conf.TimeoutSecond != 7 || conf.RetryCount != 2 {
		t.Errorf("unexpected config %+v", conf)
	}
}
