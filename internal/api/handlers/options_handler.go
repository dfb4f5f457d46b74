package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/sprachpartner/internal/prompt"
	"github.com/yoockh/sprachpartner/internal/providers/llm"
)

// OptionsHandler serves the choices the chat widget offers.
type OptionsHandler struct {
	streamer *llm.Streamer
}

func NewOptionsHandler(streamer *llm.Streamer) *OptionsHandler {
	return &OptionsHandler{streamer: streamer}
}

type ModelOption struct {
	llm.Selector
	Available bool `json:"available"`
}

type OptionsResponse struct {
	Levels         []prompt.LevelInfo `json:"levels"`
	Models         []ModelOption      `json:"models"`
	DefaultLevel   prompt.Level       `json:"default_level"`
	DefaultModel   string             `json:"default_model"`
	DefaultVerbose bool               `json:"default_verbose"`
}

func (h *OptionsHandler) Get(c *gin.Context) {
	available := map[llm.Family]bool{}
	for _, f := range h.streamer.Available() {
		available[f] = true
	}

	models := llm.Models()
	out := make([]ModelOption, 0, len(models))
	for _, m := range models {
		out = append(out, ModelOption{Selector: m, Available: available[m.Family]})
	}

	c.JSON(http.StatusOK, OptionsResponse{
		Levels:         prompt.Levels(),
		Models:         out,
		DefaultLevel:   prompt.DefaultLevel,
		DefaultModel:   h.streamer.DefaultModel(),
		DefaultVerbose: prompt.DefaultVerbose,
	})
}
