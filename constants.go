package srctest

// Channel constants
const (
	monoChannels   = 1
	stereoChannels = 2
)

// Selector prefixes and soxr recipe names.
const (
	speexPrefix = "speex-"
	soxrPrefix  = "soxr-"

	recipeNameQQ  = "qq"
	recipeNameLQ  = "lq"
	recipeNameMQ  = "mq"
	recipeNameHQ  = "hq"
	recipeNameVHQ = "vhq"
)

// Speex quality range.
const (
	// QualityMin is the fastest speex quality setting.
	QualityMin = 0

	// QualityMax is the best speex quality setting.
	QualityMax = 10
)
