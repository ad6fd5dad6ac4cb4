package models

type Quote struct {
	Content     string `json:"content"`
	Translation string `json:"translation"`
	Author      string `json:"author"`
	Picture     string `json:"picture"`
}

type Location struct {
	City      string  `json:"city"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type GeoLocation struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Adm1    string `json:"adm1"`
	Adm2    string `json:"adm2"`
	Lat     string `json:"lat"`
	Lon     string `json:"lon"`
}

type DeviceInfo struct {
	Platform   string `json:"platform"`
	ScreenSize string `json:"screenSize"`
	Language   string `json:"language"`
	TimeZone   string `json:"timeZone"`
	Referrer   string `json:"referrer"`
	UserAgent  string `json:"userAgent"`
}

// NotifyRequest is the body of a private page access notification.
type NotifyRequest struct {
	PageTitle  string      `json:"pageTitle"`
	PageURL    string      `json:"pageUrl"`
	DeviceInfo *DeviceInfo `json:"deviceInfo"`
}
