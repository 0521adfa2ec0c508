// Package images подбирает картинку товара по его названию.
package images

import (
	"regexp"
	"strings"
)

// BasePath — каталог статических изображений товаров.
const BasePath = "assets/images/products"

// Default — картинка для товаров без подходящего изображения.
const Default = BasePath + "/default.jpeg"

var catalog = map[string]string{
	"wheat-flour":   BasePath + "/wheat-flour.jpg",
	"jowar-flour":   BasePath + "/jowar-flour.jpeg",
	"basmati-rice":  BasePath + "/basmati-rice.jpeg",
	"white-rice":    BasePath + "/white-rice.jpeg",
	"sona-masoori":  BasePath + "/sona-masoori-rice.jpeg",
	"toor-dal":      BasePath + "/toor-dal.jpeg",
	"moong-dal":     BasePath + "/moong-dal.jpeg",
	"chana-dal":     BasePath + "/chana-dal.jpeg",
	"urad-dal":      BasePath + "/urad-dal.jpeg",
	"masoor-dal":    BasePath + "/masoor-dal.jpeg",
	"rajma":         BasePath + "/rajma.jpeg",
	"sugar":         BasePath + "/sugar.jpeg",
	"organic-sugar": BasePath + "/organic-sugar.jpeg",
	"jaggery":       BasePath + "/jaggery.jpeg",
	"salt":          BasePath + "/salt.jpeg",
	"cooking-oil":   BasePath + "/cooking-oil.jpeg",
	"honey":         BasePath + "/honey.jpeg",
	"turmeric":      BasePath + "/turmeric.jpeg",
}

// Правила частичного совпадения проверяются по порядку: первое подходящее побеждает.
var partialRules = []struct {
	match func(slug string) bool
	image string
}{
	{anyOf("wheat"), "wheat-flour"},
	{anyOf("jowar", "sorghum"), "jowar-flour"},
	{anyOf("basmati"), "basmati-rice"},
	{anyOf("white-rice"), "white-rice"},
	{anyOf("sona", "masoori"), "sona-masoori"},
	{anyOf("toor", "pigeon"), "toor-dal"},
	{anyOf("moong", "green-gram"), "moong-dal"},
	{anyOf("chana", "bengal"), "chana-dal"},
	{anyOf("urad", "black-gram"), "urad-dal"},
	{anyOf("masoor", "red-lentil"), "masoor-dal"},
	{anyOf("rajma", "kidney"), "rajma"},
	{func(slug string) bool {
		return strings.Contains(slug, "organic") && strings.Contains(slug, "sugar")
	}, "organic-sugar"},
	{anyOf("sugar"), "sugar"},
	{anyOf("jaggery", "gur"), "jaggery"},
	{anyOf("salt"), "salt"},
	{anyOf("oil"), "cooking-oil"},
	{anyOf("honey"), "honey"},
	{anyOf("turmeric", "haldi"), "turmeric"},
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug приводит название к виду «basmati-rice».
func Slug(name string) string {
	return nonSlug.ReplaceAllString(strings.ToLower(name), "-")
}

// URLFor возвращает путь к картинке: точное совпадение slug, затем
// частичные совпадения по ключевым словам, иначе Default.
func URLFor(productName string) string {
	slug := Slug(productName)
	if url, ok := catalog[slug]; ok {
		return url
	}
	for _, rule := range partialRules {
		if rule.match(slug) {
			return catalog[rule.image]
		}
	}
	return Default
}

func anyOf(words ...string) func(string) bool {
	return func(slug string) bool {
		for _, w := range words {
			if strings.Contains(slug, w) {
				return true
			}
		}
		return false
	}
}
