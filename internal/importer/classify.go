package importer

import "github.com/a1exr0/inplaysoft-strapi/internal/models"

// Classify maps a WordPress primary-category nice name to a target
// collection. Only "news" lands in articles; every other value, including a
// missing category, falls through to the knowledgebase so legacy content is
// preserved rather than dropped.
func Classify(niceName string) models.ContentKind {
	if niceName == "news" {
		return models.KindArticle
	}
	return models.KindKnowledgebase
}
