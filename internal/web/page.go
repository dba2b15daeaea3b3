package web

import (
	"github.com/tcas-genius/tcas-genius-go/internal/admission"
	"github.com/tcas-genius/tcas-genius-go/internal/catalog"
)

type pageData struct {
	Lang     admission.Lang
	Nonce    string
	Messages *catalog.Messages
	Tags     []string
}

func newPageData(lang admission.Lang, nonce string) pageData {
	return pageData{
		Lang:     lang,
		Nonce:    nonce,
		Messages: catalog.For(lang),
		Tags:     catalog.PopularTags,
	}
}
