package listing

import (
	"mime"
	"path"
	"strings"
)

// Icon is the CSS class list of a Font Awesome icon.
type Icon string

const (
	IconFile       Icon = "fas fa-file"
	IconText       Icon = "fas fa-file-alt"
	IconPDF        Icon = "fas fa-file-pdf"
	IconWord       Icon = "fas fa-file-word"
	IconExcel      Icon = "fas fa-file-excel"
	IconPowerPoint Icon = "fas fa-file-powerpoint"
	IconArchive    Icon = "fas fa-file-archive"
	IconCode       Icon = "fas fa-file-code"
	IconHTML       Icon = "fab fa-html5"
	IconCSS        Icon = "fab fa-css3"
	IconJS         Icon = "fab fa-js"
	IconVideo      Icon = "fas fa-video"
	IconImage      Icon = "fas fa-image"
	IconAudio      Icon = "fas fa-music"
	IconFolder     Icon = "fas fa-folder-open"
	IconParent     Icon = "fas fa-level-up-alt"
)

// extensionTypes is consulted before the platform table so that icons do not
// depend on which mime.types file the host happens to ship.
var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".dot":  "application/msword",
	".xls":  "application/vnd.ms-excel",
	".xlb":  "application/vnd.ms-excel",
	".ppt":  "application/vnd.ms-powerpoint",
	".pps":  "application/vnd.ms-powerpoint",
	".pot":  "application/vnd.ms-powerpoint",
	".zip":  "application/zip",
	".rar":  "application/x-rar-compressed",
	".json": "application/json",
	".js":   "application/javascript",
	".mjs":  "application/javascript",
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".txt":  "text/plain",
	".text": "text/plain",
	".log":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".xml":  "text/xml",
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/x-wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".aac":  "audio/aac",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
	".ico":  "image/vnd.microsoft.icon",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// MimeType guesses the media type of name from its extension alone.
// It returns "" when the extension is unknown.
func MimeType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return ""
	}
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(t)
	if err != nil {
		return ""
	}
	return mediaType
}

// Classify picks the icon shown next to a file called name.
func Classify(name string) Icon {
	t := MimeType(name)
	if t == "" {
		return IconFile
	}

	switch {
	case t == "application/pdf":
		return IconPDF
	case strings.HasPrefix(t, "application/msword"):
		return IconWord
	case strings.HasPrefix(t, "application/vnd.ms-excel"):
		return IconExcel
	case strings.HasPrefix(t, "application/vnd.ms-powerpoint"):
		return IconPowerPoint
	case strings.HasPrefix(t, "application/zip"), strings.HasPrefix(t, "application/x-rar-compressed"):
		return IconArchive
	case t == "text/html":
		return IconHTML
	case t == "text/css":
		return IconCSS
	case t == "application/json":
		return IconCode
	case t == "application/javascript", t == "text/javascript":
		return IconJS
	}

	top, _, _ := strings.Cut(t, "/")
	switch top {
	case "video":
		return IconVideo
	case "image":
		return IconImage
	case "audio":
		return IconAudio
	case "text":
		return IconText
	}
	return IconFile
}
