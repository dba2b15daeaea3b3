package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tcas-genius/tcas-genius-go/internal/admission"
	"github.com/tcas-genius/tcas-genius-go/internal/catalog"
)

type suggestionsResponse struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

func (h *Handler) suggestFaculties(c *gin.Context) {
	q := c.Query("q")
	c.JSON(http.StatusOK, suggestionsResponse{Query: q, Suggestions: nonNil(catalog.SuggestFaculties(q))})
}

func (h *Handler) suggestUniversities(c *gin.Context) {
	q := c.Query("q")
	c.JSON(http.StatusOK, suggestionsResponse{Query: q, Suggestions: nonNil(catalog.SuggestUniversities(q))})
}

func (h *Handler) popularTags(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tags": catalog.PopularTags})
}

// translations returns the string table of a language. Unknown codes get Thai.
func (h *Handler) translations(c *gin.Context) {
	lang := admission.ParseLang(c.Param("lang"))
	c.Header("Cache-Control", "public, max-age=3600")
	c.JSON(http.StatusOK, gin.H{
		"lang":     lang,
		"messages": catalog.For(lang),
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
