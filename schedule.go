package site

import (
	"time"

	"github.com/radioconexion/site/internal/schedule"
	"github.com/radioconexion/site/internal/web"
)

// weekdayGrid is the program lineup that airs every day of the week
var weekdayGrid = []schedule.Program{
	{Start: "06:00", End: "10:00", Name: "Conexión Matutina", Host: "María González", Description: "Noticias y música para arrancar el día", Icon: "coffee"},
	{Start: "10:00", End: "14:00", Name: "Ritmos Sin Fronteras", Host: "Carlos Rodríguez", Description: "Éxitos latinos de todos los tiempos", Icon: "music"},
	{Start: "14:00", End: "18:00", Name: "Tarde Latina", Host: "Ana Martínez", Description: "Entretenimiento y conversación", Icon: "sun"},
	{Start: "18:00", End: "22:00", Name: "Conexión Nocturna", Host: "Luis Fernández", Description: "Baladas y compañía", Icon: "sunset"},
	{Start: "22:00", End: "23:59", Name: "Madrugada Latina", Host: "Sofía Herrera", Description: "Música suave y romántica", Icon: "moon"},
}

// Programs declares the station's weekly schedule. Monday's slots carry
// descriptions; the other days repeat the same lineup without them.
var Programs = buildWeek(weekdayGrid)

func buildWeek(grid []schedule.Program) schedule.Schedule {
	week := make(schedule.Schedule, 0, len(grid)*7)
	for _, day := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday} {
		for i, slot := range grid {
			p := slot
			p.Day = day
			if day == time.Monday {
				p.Id = i + 1
			} else {
				p.Id = dayNumber(day)*10 + i + 1
				p.Description = ""
			}
			week = append(week, p)
		}
	}
	return week
}

// dayNumber numbers days Monday=1 through Sunday=7
func dayNumber(day time.Weekday) int {
	if day == time.Sunday {
		return 7
	}
	return int(day)
}

// SocialLinks declares the station's presence on other platforms, in display order
var SocialLinks = []web.Link{
	{Name: "Web", URL: "https://www.radioconexionlatam.net.pe/"},
	{Name: "Twitch", URL: "https://www.twitch.tv/radioconexionlatam"},
	{Name: "Spotify", URL: "https://open.spotify.com/show/2QIEylnlbAahByrVqbwjhx"},
	{Name: "Zeno", URL: "https://zeno.fm/radioconexionlatam"},
	{Name: "Telegram", URL: "https://t.me/radioconexionlatam"},
	{Name: "Discord", URL: "https://discord.com/invite/CZmzfgjSYE"},
	{Name: "WhatsApp", URL: "https://wa.me/+51936030586"},
	{Name: "YouTube", URL: "https://www.youtube.com/channel/UCCVlwnb2MW6nnhGVYr7vHVg"},
	{Name: "TikTok", URL: "https://www.tiktok.com/@radioconexion_latam"},
	{Name: "Facebook", URL: "https://www.facebook.com/radioconexionLATAM"},
	{Name: "Instagram", URL: "https://www.instagram.com/radioconexion_latam/"},
	{Name: "X", URL: "https://x.com/RConexion_LATAM"},
}
