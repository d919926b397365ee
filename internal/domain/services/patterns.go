package services

// Static keyword tables shared by the text and URL analyzers. Order matters
// for the URL tables: domain keywords are checked first-match-wins.

var phishingKeywords = []string{
	"urgent", "verify", "suspended", "click here", "winner",
	"congratulations", "limited time", "act now", "expires", "claim",
	"free money", "lottery", "bank account", "social security",
	"password", "login credentials", "update payment", "confirm identity",
	"security alert", "account locked",
}

var urgencyTerms = []string{"urgent", "immediate", "asap"}

var financialTerms = []string{"bank", "account", "payment", "money"}

var actionTerms = []string{"click", "download", "verify", "update"}

// modelUrgencyTerms boost the classifier blend when present.
var modelUrgencyTerms = []string{"urgent", "verify", "click", "suspended"}

var urlShorteners = []string{
	"bit.ly", "tinyurl.com", "goo.gl", "t.co", "ow.ly",
	"short.link", "tiny.cc", "is.gd", "buff.ly",
}

var trustedDomains = []string{
	"google.com", "amazon.com", "microsoft.com", "apple.com",
	"facebook.com", "twitter.com", "linkedin.com", "github.com",
	"stackoverflow.com", "wikipedia.org",
}

var suspiciousDomainKeywords = []string{
	"secure", "verify", "update", "login", "account", "bank",
	"paypal", "amazon", "microsoft", "apple", "google",
}

var riskyExtensions = []string{".exe", ".scr", ".bat", ".com", ".pif", ".vbs"}
