package vision

import (
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"meal-planner-api/internal/infrastructure/config"
)

func TestNewClientReusesDownloadClient(t *testing.T) {
	c := NewClient(config.VisionConfig{
		BaseURL: "https://vision.example",
		Timeout: 7 * time.Second,
	}, zap.NewNop())

	if c.download == nil {
		t.Fatal("download client not configured")
	}
	if c.download == c.http {
		t.Error("download client must not share the model client's base URL")
	}
	if got := c.download.GetClient().Timeout; got != 7*time.Second {
		t.Errorf("download timeout = %v, want 7s", got)
	}
}

func TestParseIngredientNamesJSON(t *testing.T) {
	text := `{"ingredients": ["tomato", "tofu", "spring onion"]}`
	got := parseIngredientNames(text)
	want := []string{"tomato", "tofu", "spring onion"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseIngredientNames = %v, want %v", got, want)
	}
}

func TestParseIngredientNamesFencedJSON(t *testing.T) {
	text := "Here is what I found:\n```json\n{\"ingredients\": [\"egg\", \"rice\"]}\n```\nEnjoy!"
	got := parseIngredientNames(text)
	want := []string{"egg", "rice"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseIngredientNames = %v, want %v", got, want)
	}
}

func TestParseIngredientNamesListFallback(t *testing.T) {
	text := "- tomato\n- tofu, basil\n"
	got := parseIngredientNames(text)
	want := []string{"tomato", "tofu", "basil"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseIngredientNames = %v, want %v", got, want)
	}
}

func TestParseIngredientNamesDedup(t *testing.T) {
	text := `{"ingredients": ["Tomato", "tomato", " TOMATO ", "tofu"]}`
	got := parseIngredientNames(text)
	if len(got) != 2 {
		t.Errorf("expected 2 unique names, got %v", got)
	}
}

func TestParseIngredientNamesEmpty(t *testing.T) {
	if got := parseIngredientNames(`{"ingredients": []}`); len(got) != 0 {
		t.Errorf("expected no names, got %v", got)
	}
}
