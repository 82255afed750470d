package news

import "strconv"

// AuthorInfo is the byline attached to an article
type AuthorInfo struct {
	Name            string            `json:"nombre,omitempty"`
	Title           string            `json:"titulo,omitempty"`
	Description     string            `json:"descripcion,omitempty"`
	Avatar          string            `json:"avatar,omitempty"`
	Level           int               `json:"nivel,omitempty"`
	YearsExperience int               `json:"experiencia_años,omitempty"`
	ArticlesTotal   int               `json:"articulos_total,omitempty"`
	Followers       int               `json:"seguidores,omitempty"`
	Precision       float64           `json:"precision,omitempty"`
	Specialties     []string          `json:"especialidades,omitempty"`
	Achievements    []string          `json:"logros,omitempty"`
	TopAnime        []string          `json:"top_anime,omitempty"`
	SocialLinks     map[string]string `json:"redes_sociales,omitempty"`
	Quote           string            `json:"frase,omitempty"`
}

// Article is a news item as the API returns it
type Article struct {
	Id          int         `json:"id"`
	Title       string      `json:"titulo"`
	Slug        string      `json:"slug,omitempty"`
	Summary     string      `json:"resumen"`
	Content     string      `json:"contenido"`
	Date        string      `json:"fecha"`
	CreatedAt   string      `json:"fecha_creacion,omitempty"`
	UpdatedAt   string      `json:"fecha_actualizacion,omitempty"`
	Image       string      `json:"imagen"`
	Category    string      `json:"categoria"`
	Program     string      `json:"programa,omitempty"`
	Tags        []string    `json:"tags"`
	Views       int         `json:"vistas"`
	Likes       int         `json:"likes"`
	Comments    int         `json:"comentarios"`
	Shares      int         `json:"compartidos"`
	Featured    bool        `json:"destacada"`
	ReadingTime int         `json:"tiempo_lectura,omitempty"`
	Author      *AuthorInfo `json:"autor_info,omitempty"`

	AudioURL   string `json:"audio_url,omitempty"`
	AudioTitle string `json:"audio_titulo,omitempty"`

	AllowComments  bool  `json:"permitir_comentarios,omitempty"`
	AllowAnonymous bool  `json:"permitir_anonimos,omitempty"`
	RelatedIds     []int `json:"articulos_relacionados,omitempty"`

	// LastEditedBy is only populated by the admin listing
	LastEditedBy string `json:"last_edited_by,omitempty"`
}

// AuthorName returns the byline name, or a dash if the article has none
func (a *Article) AuthorName() string {
	if a.Author == nil || a.Author.Name == "" {
		return "—"
	}
	return a.Author.Name
}

// ArticleInput is the payload used to create an article. It doubles as the shape of
// an autosaved draft.
type ArticleInput struct {
	Title       string      `json:"titulo"`
	Summary     string      `json:"resumen"`
	Content     string      `json:"contenido"`
	Date        string      `json:"fecha,omitempty"`
	Image       string      `json:"imagen"`
	Category    string      `json:"categoria"`
	Program     string      `json:"programa,omitempty"`
	Tags        []string    `json:"tags"`
	Featured    bool        `json:"destacada"`
	Author      *AuthorInfo `json:"autor_info,omitempty"`
	AudioURL    string      `json:"audio_url,omitempty"`
	AudioTitle  string      `json:"audio_titulo,omitempty"`
	ReadingTime int         `json:"tiempo_lectura,omitempty"`

	AllowComments  bool  `json:"permitir_comentarios,omitempty"`
	AllowAnonymous bool  `json:"permitir_anonimos,omitempty"`
	RelatedIds     []int `json:"articulos_relacionados,omitempty"`
}

// ArticleUpdate is the payload used to edit an existing article
type ArticleUpdate struct {
	Title    string   `json:"titulo"`
	Summary  string   `json:"resumen"`
	Content  string   `json:"contenido"`
	Date     string   `json:"fecha,omitempty"`
	Image    string   `json:"imagen"`
	Category string   `json:"categoria"`
	Program  string   `json:"programa"`
	Tags     []string `json:"tags"`
	Featured bool     `json:"destacada"`
	// AuthorId reassigns the article; only admins send it
	AuthorId *int `json:"autor_id,omitempty"`
}

// UpdateFrom returns the editable fields of an existing article
func UpdateFrom(a *Article) ArticleUpdate {
	return ArticleUpdate{
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

// HistoryEntry records one change made to an article
type HistoryEntry struct {
	UserId    int    `json:"usuario_id,omitempty"`
	UserName  string `json:"usuario_nombre,omitempty"`
	Action    string `json:"accion"`
	CreatedAt string `json:"created_at"`
	Changes   struct {
		Before *HistorySnapshot `json:"before,omitempty"`
		After  *HistorySnapshot `json:"after,omitempty"`
	} `json:"cambios"`
}

// HistorySnapshot is the state of an article on one side of a change
type HistorySnapshot struct {
	Title string `json:"titulo"`
}

// Who names the user who made the change
func (h *HistoryEntry) Who() string {
	if h.UserName != "" {
		return h.UserName
	}
	if h.UserId != 0 {
		return "Usuario " + strconv.Itoa(h.UserId)
	}
	return "Usuario anon"
}
