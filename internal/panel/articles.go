package panel

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/radioconexion/site/internal/drafts"
	"github.com/radioconexion/site/internal/logging"
	"github.com/radioconexion/site/internal/news"
	"github.com/radioconexion/site/internal/session"
)

// maxDraftSize bounds the body of a draft autosave
const maxDraftSize = 1 << 20

// Row is an article as listed in the panel
type Row struct {
	Id       int
	Title    string
	Slug     string
	Category string
	Date     string
	Author   string
	Editor   string
	Views    int
	Featured bool
}

// ListView is the data of the panel's article list
type ListView struct {
	Articles []Row
	Query    string
	Total    int
	Featured int
	Views    int
}

// FormView is the data of the article editor, used both to create and to edit
type FormView struct {
	Action     string
	DraftURL   string
	Editing    bool
	Id         int
	Article    news.ArticleInput
	TagsText   string
	Categories []string
	Tags       []string
	// Authors is only populated for admins, who may reassign an article
	Authors     []User
	ReadingTime int
}

// DeleteView is the data of the delete confirmation
type DeleteView struct {
	Article *news.Article
}

// HistoryView is the data of an article's change log
type HistoryView struct {
	Id      int
	Article *news.Article
	Entries []news.HistoryEntry
}

func articleId(req *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(req)["id"])
	return id
}

func (s *Server) handleList(res http.ResponseWriter, req *http.Request) {
	v := s.visitorFor(res, req)
	page := s.page(req, v, "Panel editorial")
	query := strings.TrimSpace(req.URL.Query().Get("q"))

	articles, err := v.news.AdminAll(req.Context())
	if err != nil {
		logAPIError(err, "failed to list articles for the panel")
		page.Error = apiErrorMessage("No se pudieron cargar las noticias", err)
		page.Data = ListView{Query: query, Articles: []Row{}}
		s.r.Render(res, http.StatusBadGateway, "panel_list", page)
		return
	}

	view := ListView{Query: query, Articles: make([]Row, 0, len(articles))}
	needle := strings.ToLower(query)
	for i := range articles {
		a := &articles[i]
		row := Row{
			Id:       a.Id,
			Title:    a.Title,
			Slug:     news.CanonicalSlug(a),
			Category: a.Category,
			Date:     a.Date,
			Author:   a.AuthorName(),
			Editor:   a.LastEditedBy,
			Views:    a.Views,
			Featured: a.Featured,
		}
		if needle != "" && !matches(needle, row.Title, row.Category, row.Author) {
			continue
		}
		view.Articles = append(view.Articles, row)
		view.Total++
		view.Views += a.Views
		if a.Featured {
			view.Featured++
		}
	}
	page.Data = view
	s.r.Render(res, http.StatusOK, "panel_list", page)
}

// matches reports whether any of the values contains needle, ignoring case
func matches(needle string, values ...string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func (s *Server) handleCreatePage(res http.ResponseWriter, req *http.Request) {
	v := s.visitorFor(res, req)
	page := s.page(req, v, "Agregar noticia")
	view := s.newFormView(req, v)

	if s.autosaver != nil {
		if draft, ok := s.loadDraft(req, v); ok {
			view.Article = draft
			view.TagsText = strings.Join(draft.Tags, ", ")
			view.ReadingTime = news.ReadingTime(draft.Content)
			page.Notice = "Se recuperó un borrador sin guardar"
		}
	}
	page.Data = view
	s.r.Render(res, http.StatusOK, "panel_form", page)
}

func (s *Server) handleCreate(res http.ResponseWriter, req *http.Request) {
	v := s.visitorFor(res, req)
	input := articleFromForm(req)
	input.ReadingTime = news.ReadingTime(input.Content)

	fail := func(status int, msg string) {
		page := s.page(req, v, "Agregar noticia")
		page.Error = msg
		view := s.newFormView(req, v)
		view.Article = input
		view.TagsText = strings.Join(input.Tags, ", ")
		view.ReadingTime = input.ReadingTime
		page.Data = view
		s.r.Render(res, status, "panel_form", page)
	}

	if msg := validateArticle(input); msg != "" {
		fail(http.StatusUnprocessableEntity, msg)
		return
	}
	if _, err := v.news.Create(req.Context(), input); err != nil {
		logAPIError(err, "failed to create article")
		fail(http.StatusBadGateway, apiErrorMessage("Error al guardar", err))
		return
	}
	if s.autosaver != nil {
		if visitorId, err := drafts.VisitorId(v.session.Store()); err == nil {
			if err := s.autosaver.Discard(req.Context(), visitorId, session.KeyArticleDraft); err != nil {
				logging.With("panel").Warn().Err(err).Msg("failed to discard draft after publishing")
			}
		}
	}
	s.redirect(res, req, "", "creada")
}

func (s *Server) newFormView(req *http.Request, v visitor) FormView {
	categories, tags := v.news.Vocabulary(req.Context())
	view := FormView{
		Action:     s.base + "/agregar",
		Categories: categories,
		Tags:       tags,
		Article:    news.ArticleInput{Tags: []string{}},
	}
	if s.autosaver != nil {
		view.DraftURL = s.base + "/agregar/borrador"
	}
	return view
}

// loadDraft returns the visitor's autosaved article, if they have one
func (s *Server) loadDraft(req *http.Request, v visitor) (news.ArticleInput, bool) {
	var draft news.ArticleInput
	visitorId, err := drafts.VisitorId(v.session.Store())
	if err != nil {
		return draft, false
	}
	data, ok, err := s.autosaver.Load(req.Context(), visitorId, session.KeyArticleDraft)
	if err != nil {
		logging.With("panel").Warn().Err(err).Msg("failed to load draft")
		return draft, false
	}
	if !ok {
		return draft, false
	}
	if err := json.Unmarshal(data, &draft); err != nil {
		logging.With("panel").Warn().Err(err).Msg("discarding unreadable draft")
		return draft, false
	}
	if draft.Tags == nil {
		draft.Tags = []string{}
	}
	return draft, true
}

func (s *Server) handleGetDraft(res http.ResponseWriter, req *http.Request) {
	v := s.visitorFor(res, req)
	draft, ok := s.loadDraft(req, v)
	if !ok {
		res.WriteHeader(http.StatusNoContent)
		return
	}
	res.Header().Set("content-type", "application/json")
	json.NewEncoder(res).Encode(draft)
}

func (s *Server) handlePutDraft(res http.ResponseWriter, req *http.Request) {
	v := s.visitorFor(res, req)
	visitorId, err := drafts.VisitorId(v.session.Store())
	if err != nil {
		http.Error(res, "failed to identify visitor", http.StatusInternalServerError)
		return
	}

	var draft news.ArticleInput
	body, err := io.ReadAll(io.LimitReader(req.Body, maxDraftSize+1))
	if err != nil {
		http.Error(res, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) > maxDraftSize {
		http.Error(res, "draft too large", http.StatusRequestEntityTooLarge)
		return
	}
	if err := json.Unmarshal(body, &draft); err != nil {
		http.Error(res, "invalid draft", http.StatusBadRequest)
		return
	}
	data, err := json.Marshal(draft)
	if err != nil {
		http.Error(res, "invalid draft", http.StatusBadRequest)
		return
	}
	s.autosaver.Schedule(visitorId, session.KeyArticleDraft, data)
	res.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleDeleteDraft(res http.ResponseWriter, req *http.Request) {
	v := s.visitorFor(res, req)
	visitorId, err := drafts.VisitorId(v.session.Store())
	if err != nil {
		http.Error(res, "failed to identify visitor", http.StatusInternalServerError)
		return
	}
	if err := s.autosaver.Discard(req.Context(), visitorId, session.KeyArticleDraft); err != nil {
		logging.With("panel").Error().Err(err).Msg("failed to delete draft")
		http.Error(res, "failed to delete draft", http.StatusInternalServerError)
		return
	}
	res.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEditPage(res http.ResponseWriter, req *http.Request) {
	v := s.visitorFor(res, req)
	id := articleId(req)
	page := s.page(req, v, "Editar noticia")

	article, err := v.news.ByID(req.Context(), id)
	if err != nil {
		logAPIError(err, "failed to load article for editing")
		page.Error = apiErrorMessage("No se pudo cargar la noticia", err)
		s.r.Render(res, apiErrorStatus(err), "panel_error", page)
		return
	}
	input := inputFromArticle(article)
	page.Data = s.editFormView(req, v, id, input)
	s.r.Render(res, http.StatusOK, "panel_form", page)
}

func (s *Server) handleEdit(res http.ResponseWriter, req *http.Request) {
	v := s.visitorFor(res, req)
	id := articleId(req)
	input := articleFromForm(req)

	fail := func(status int, msg string) {
		page := s.page(req, v, "Editar noticia")
		page.Error = msg
		page.Data = s.editFormView(req, v, id, input)
		s.r.Render(res, status, "panel_form", page)
	}

	if msg := validateArticle(input); msg != "" {
		fail(http.StatusUnprocessableEntity, msg)
		return
	}
	update := updateFromInput(input)
	if v.isAdmin() {
		update.AuthorId = parseAuthorId(req.PostFormValue("autor_id"))
	}
	if err := v.news.Update(req.Context(), id, update); err != nil {
		logAPIError(err, "failed to update article")
		fail(http.StatusBadGateway, apiErrorMessage("Error al actualizar", err))
		return
	}
	s.redirect(res, req, "", "actualizada")
}

func (s *Server) editFormView(req *http.Request, v visitor, id int, input news.ArticleInput) FormView {
	view := FormView{
		Action:      s.base + "/editar/" + strconv.Itoa(id),
		Editing:     true,
		Id:          id,
		Article:     input,
		TagsText:    strings.Join(input.Tags, ", "),
		ReadingTime: news.ReadingTime(input.Content),
	}

	g, ctx := errgroup.WithContext(req.Context())
	g.Go(func() error {
		view.Categories, view.Tags = v.news.Vocabulary(ctx)
		return nil
	})
	if v.isAdmin() {
		g.Go(func() error {
			users, err := v.accounts.Users(ctx)
			if err != nil {
				logAPIError(err, "failed to list authors")
				return nil
			}
			view.Authors = users
			return nil
		})
	}
	g.Wait()
	return view
}

func (s *Server) handleDeletePage(res http.ResponseWriter, req *http.Request) {
	v := s.visitorFor(res, req)
	page := s.page(req, v, "Eliminar noticia")

	article, err := v.news.ByID(req.Context(), articleId(req))
	if err != nil {
		logAPIError(err, "failed to load article for deletion")
		page.Error = apiErrorMessage("No se pudo cargar la noticia", err)
		s.r.Render(res, apiErrorStatus(err), "panel_error", page)
		return
	}
	page.Data = DeleteView{Article: article}
	s.r.Render(res, http.StatusOK, "panel_delete", page)
}

func (s *Server) handleDelete(res http.ResponseWriter, req *http.Request) {
	v := s.visitorFor(res, req)
	id := articleId(req)

	if err := v.news.Delete(req.Context(), id); err != nil {
		logAPIError(err, "failed to delete article")
		page := s.page(req, v, "Eliminar noticia")
		page.Error = apiErrorMessage("No se pudo eliminar la noticia", err)
		article, loadErr := v.news.ByID(req.Context(), id)
		if loadErr != nil {
			article = &news.Article{Id: id}
		}
		page.Data = DeleteView{Article: article}
		s.r.Render(res, http.StatusBadGateway, "panel_delete", page)
		return
	}
	s.redirect(res, req, "", "eliminada")
}

func (s *Server) handleHistory(res http.ResponseWriter, req *http.Request) {
	v := s.visitorFor(res, req)
	id := articleId(req)
	page := s.page(req, v, "Historial")
	view := HistoryView{Id: id}

	g, ctx := errgroup.WithContext(req.Context())
	g.Go(func() error {
		entries, err := v.news.History(ctx, id)
		if err != nil {
			return err
		}
		view.Entries = entries
		return nil
	})
	g.Go(func() error {
		// The title is a nicety; the history is still shown without it
		if article, err := v.news.ByID(ctx, id); err == nil {
			view.Article = article
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logAPIError(err, "failed to load article history")
		page.Error = apiErrorMessage("Error al obtener historial", err)
		view.Entries = []news.HistoryEntry{}
		page.Data = view
		s.r.Render(res, http.StatusBadGateway, "panel_history", page)
		return
	}
	page.Data = view
	s.r.Render(res, http.StatusOK, "panel_history", page)
}
