// Package naming converts record attribute, relationship and model names
// into their wire representation.
//
// The default convention follows JSON:API conventions: attribute and
// relationship keys are dasherized ("publishedDate" → "published-date") and
// resource types are the pluralized, dasherized model name
// ("blogPost" → "blog-posts").
//
// Usage:
//
//	conv := naming.Default()
//	conv.KeyForAttribute("publishedDate") // "published-date"
//	conv.TypeForModel("tag")             // "tags"
//
//	conv = naming.Convention{Attributes: naming.StyleUnderscore, Relationships: naming.StyleDasherize}
//	conv.KeyForAttribute("publishedDate") // "published_date"
package naming
