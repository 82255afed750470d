package panel

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/radioconexion/site/internal/news"
)

// minContentLength is the shortest article body accepted, in characters of plain text
const minContentLength = 20

// Roles offered when creating or editing a panel account
var accountRoles = []string{"ADMIN", "EDITOR", "REDACTOR", "VIEWER"}

// notices are the confirmations shown after a redirect, keyed by the aviso parameter
var notices = map[string]string{
	"creada":      "Noticia guardada con éxito",
	"actualizada": "Noticia actualizada",
	"eliminada":   "Noticia eliminada",
}

// articleFromForm reads the article editor's fields
func articleFromForm(req *http.Request) news.ArticleInput {
	field := func(name string) string {
		return strings.TrimSpace(req.PostFormValue(name))
	}
	return news.ArticleInput{
		Title:      field("titulo"),
		Summary:    news.LimitSummary(field("resumen")),
		Content:    req.PostFormValue("contenido"),
		Date:       field("fecha"),
		Image:      field("imagen"),
		Category:   field("categoria"),
		Program:    field("programa"),
		Tags:       splitTags(req.PostFormValue("tags")),
		Featured:   req.PostFormValue("destacada") != "",
		AudioURL:   field("audio_url"),
		AudioTitle: field("audio_titulo"),

		AllowComments:  req.PostFormValue("permitir_comentarios") != "",
		AllowAnonymous: req.PostFormValue("permitir_anonimos") != "",
	}
}

// validateArticle returns a message describing the first problem with an article,
// or "" if it may be submitted
func validateArticle(a news.ArticleInput) string {
	if strings.TrimSpace(a.Title) == "" {
		return "El título es obligatorio"
	}
	if strings.TrimSpace(a.Category) == "" {
		return "Selecciona una categoría"
	}
	if len([]rune(news.PlainText(a.Content))) < minContentLength {
		return "El contenido es muy corto (mín. 20 caracteres)"
	}
	return ""
}

// updateFromInput converts editor fields to an update payload
func updateFromInput(a news.ArticleInput) news.ArticleUpdate {
	return news.ArticleUpdate{
		Title:    a.Title,
		Summary:  a.Summary,
		Content:  a.Content,
		Date:     a.Date,
		Image:    a.Image,
		Category: a.Category,
		Program:  a.Program,
		Tags:     a.Tags,
		Featured: a.Featured,
	}
}

// inputFromArticle fills the editor from an existing article
func inputFromArticle(a *news.Article) news.ArticleInput {
	return news.ArticleInput{
		Title:       a.Title,
		Summary:     a.Summary,
		Content:     a.Content,
		Date:        a.Date,
		Image:       a.Image,
		Category:    a.Category,
		Program:     a.Program,
		Tags:        a.Tags,
		Featured:    a.Featured,
		AudioURL:    a.AudioURL,
		AudioTitle:  a.AudioTitle,
		ReadingTime: a.ReadingTime,

		AllowComments:  a.AllowComments,
		AllowAnonymous: a.AllowAnonymous,
	}
}

// splitTags parses a comma-separated tag list, dropping blanks and duplicates
func splitTags(s string) []string {
	tags := make([]string, 0)
	seen := make(map[string]struct{})
	for _, tag := range strings.Split(s, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// parseAuthorId reads the optional author reassignment of the edit form
func parseAuthorId(s string) *int {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

// parseSocialLinks reads "name: url" lines into a map
func parseSocialLinks(s string) map[string]string {
	links := make(map[string]string)
	for _, line := range strings.Split(s, "\n") {
		name, link, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name, link = strings.TrimSpace(name), strings.TrimSpace(link)
		if name == "" || link == "" {
			continue
		}
		links[strings.ToLower(name)] = link
	}
	return links
}

// formatSocialLinks is the inverse of parseSocialLinks
func formatSocialLinks(links map[string]string) string {
	lines := make([]string, 0, len(links))
	for name, link := range links {
		lines = append(lines, name+": "+link)
	}
	slices.Sort(lines)
	return strings.Join(lines, "\n")
}

func isAccountRole(role string) bool {
	return slices.Contains(accountRoles, role)
}
