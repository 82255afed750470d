package news

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/radioconexion/site/internal/api"
	"github.com/radioconexion/site/internal/logging"
	"github.com/radioconexion/site/internal/player"
	"github.com/radioconexion/site/internal/schedule"
	"github.com/radioconexion/site/internal/session"
	"github.com/radioconexion/site/internal/web"
)

// cardSummaryWords is how much of a summary an article card shows
const cardSummaryWords = 50

// homeArticleCount is how many of the latest articles the home page shows
const homeArticleCount = 6

// Card is an article as shown in a listing
type Card struct {
	Id          int
	Title       string
	Slug        string
	Summary     string
	Image       string
	Category    string
	Date        string
	Author      string
	Featured    bool
	ReadingTime int
}

// DayView is one day of the program grid
type DayView struct {
	Label    string
	Today    bool
	Programs []schedule.Program
}

// HomeView is the data of the home page
type HomeView struct {
	NowPlaying *schedule.Program
	Week       []DayView
	Latest     []Card
	// NewsError is set if the latest articles could not be loaded
	NewsError string
}

// ListView is the data of the news listing
type ListView struct {
	Articles   []Card
	Categories []string
	Category   string
}

// DetailView is the data of an article page
type DetailView struct {
	Article    *Article
	Image      string
	Paragraphs []string
	Related    []Card
	ShareURL   string
}

// Server serves the public pages: home, news listing and article detail
type Server struct {
	r        *web.Renderer
	api      *api.Client
	programs schedule.Schedule
	now      func() time.Time
}

func NewServer(r *web.Renderer, client *api.Client, programs schedule.Schedule) *Server {
	return &Server{
		r:        r,
		api:      client,
		programs: programs,
		now:      time.Now,
	}
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	r.Path("/").Methods("GET").HandlerFunc(s.handleHome)
	r.Path("/noticias").Methods("GET").HandlerFunc(s.handleList)
	r.Path("/noticia/{slug}").Methods("GET").HandlerFunc(s.handleDetail)
}

func (s *Server) handleHome(res http.ResponseWriter, req *http.Request) {
	client, _ := s.connect(res, req)
	now := s.now()

	view := HomeView{Week: s.week(now)}
	if program, ok := s.programs.NowPlaying(now); ok {
		view.NowPlaying = &program
	}
	articles, err := client.List(req.Context(), ListOptions{Limit: PublicListLimit})
	if err != nil {
		logging.With("news").Warn().Err(err).Msg("failed to load latest articles")
		view.NewsError = "No se pudieron cargar las noticias."
	} else {
		if len(articles) > homeArticleCount {
			articles = articles[:homeArticleCount]
		}
		view.Latest = s.cards(client, articles)
	}

	page := s.page(res, req, "Inicio")
	page.Meta.Description = DefaultDescription
	page.Data = view
	s.r.Render(res, http.StatusOK, "home", page)
}

func (s *Server) handleList(res http.ResponseWriter, req *http.Request) {
	client, _ := s.connect(res, req)
	category := req.URL.Query().Get("categoria")

	page := s.page(res, req, "Noticias")
	page.Meta.Description = DefaultDescription
	articles, err := client.List(req.Context(), ListOptions{Limit: PublicListLimit})
	if err != nil {
		logging.With("news").Warn().Err(err).Msg("failed to list articles")
		page.Error = "No se pudieron cargar las noticias."
		page.Data = ListView{Category: category}
		s.r.Render(res, http.StatusBadGateway, "news_list", page)
		return
	}

	view := ListView{Category: category, Categories: categoriesOf(articles)}
	filtered := make([]Article, 0, len(articles))
	for _, a := range articles {
		if category == "" || a.Category == category {
			filtered = append(filtered, a)
		}
	}
	view.Articles = s.cards(client, filtered)
	page.Data = view
	s.r.Render(res, http.StatusOK, "news_list", page)
}

func (s *Server) handleDetail(res http.ResponseWriter, req *http.Request) {
	client, f := s.connect(res, req)
	slug := mux.Vars(req)["slug"]

	article, err := client.FindBySlug(req.Context(), slug)
	if err != nil {
		page := s.page(res, req, "Noticia no encontrada")
		if errors.Is(err, ErrNotFound) || api.IsStatus(err, http.StatusNotFound) {
			s.r.Render(res, http.StatusNotFound, "not_found", page)
			return
		}
		logging.With("news").Error().Err(err).Str("slug", slug).Msg("failed to load article")
		page.Error = "No se pudo cargar la noticia."
		s.r.Render(res, http.StatusBadGateway, "not_found", page)
		return
	}

	related, err := client.Related(req.Context(), article)
	if err != nil {
		logging.With("news").Warn().Err(err).Str("category", article.Category).Msg("failed to load related articles")
		related = []Article{}
	}

	meta := ShareMeta(s.r.Site(), f.Base(), article)
	page := s.page(res, req, article.Title)
	page.Meta = meta
	page.Data = DetailView{
		Article:    article,
		Image:      ImageURL(f.Base(), article.Image),
		Paragraphs: Paragraphs(article.Content),
		Related:    s.cards(client, related),
		ShareURL:   meta.URL,
	}
	s.r.Render(res, http.StatusOK, "news_detail", page)
}

// connect binds the API client to the visitor who made the request
func (s *Server) connect(res http.ResponseWriter, req *http.Request) (*Client, Fetcher) {
	f := s.api.As(session.NewCookieStore(res, req))
	return NewClient(f), f
}

func (s *Server) page(res http.ResponseWriter, req *http.Request, title string) web.Page {
	return web.Page{
		Title:         title,
		Path:          req.URL.Path,
		PlayerVisible: player.LoadUIState(session.NewCookieStore(res, req)).Visible(),
	}
}

func (s *Server) week(now time.Time) []DayView {
	week := make([]DayView, 0, len(schedule.DayLabels))
	for _, d := range schedule.DayLabels {
		week = append(week, DayView{
			Label:    d.Label,
			Today:    d.Day == now.Weekday(),
			Programs: s.programs.ForDay(d.Day),
		})
	}
	return week
}

func (s *Server) cards(client *Client, articles []Article) []Card {
	base := client.f.Base()
	cards := make([]Card, 0, len(articles))
	for i := range articles {
		a := &articles[i]
		cards = append(cards, Card{
			Id:          a.Id,
			Title:       a.Title,
			Slug:        CanonicalSlug(a),
			Summary:     TruncateWords(a.Summary, cardSummaryWords),
			Image:       ImageURL(base, a.Image),
			Category:    a.Category,
			Date:        a.Date,
			Author:      a.AuthorName(),
			Featured:    a.Featured,
			ReadingTime: a.ReadingTime,
		})
	}
	return cards
}

// categoriesOf lists the distinct categories of the given articles, in order of
// first appearance
func categoriesOf(articles []Article) []string {
	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, a := range articles {
		if a.Category == "" {
			continue
		}
		if _, ok := seen[a.Category]; ok {
			continue
		}
		seen[a.Category] = struct{}{}
		categories = append(categories, a.Category)
	}
	return categories
}
