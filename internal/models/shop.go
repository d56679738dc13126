package models

// ShopEntry maps a brand and an area substring pattern to a physical shop.
type ShopEntry struct {
	Brand string `yaml:"brand"`
	Area  string `yaml:"area"`
	Shop  string `yaml:"shop"`
}
