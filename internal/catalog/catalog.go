// Package catalog provides the static registry of conversion tools.
// It is pure data: display layers read it, nothing mutates it.
package catalog

import (
	"sort"

	"github.com/maauso/mediaconvert-api/internal/convert"
)

// Tool describes one user facing tool.
type Tool struct {
	// ID is the tool identifier sent with a conversion request.
	ID convert.ToolID `json:"id"`
	// Category is the routing category of the tool.
	Category convert.CategoryID `json:"category"`
	// Name is the display name.
	Name string `json:"name"`
	// Description is a one line summary.
	Description string `json:"description"`
	// Accept is the MIME class the tool expects, e.g. "image/".
	Accept string `json:"accept"`
}

type key struct {
	category convert.CategoryID
	id       convert.ToolID
}

var tools = []Tool{
	// Image tools
	{ID: "to-png", Category: convert.CategoryImage, Name: "Convert to PNG", Description: "Re-encode an image as lossless PNG", Accept: convert.ClassImage},
	{ID: "to-jpg", Category: convert.CategoryImage, Name: "Convert to JPG", Description: "Re-encode an image as JPEG", Accept: convert.ClassImage},
	{ID: "to-jpeg", Category: convert.CategoryImage, Name: "Convert to JPEG", Description: "Re-encode an image as JPEG", Accept: convert.ClassImage},
	{ID: "to-webp", Category: convert.CategoryImage, Name: "Convert to WebP", Description: "Re-encode an image as WebP", Accept: convert.ClassImage},
	{ID: "convert-image", Category: convert.CategoryImage, Name: "Image Converter", Description: "Re-encode an image in the chosen output format", Accept: convert.ClassImage},
	{ID: "compress-image", Category: convert.CategoryImage, Name: "Compress Image", Description: "Shrink an image with lossy JPEG encoding", Accept: convert.ClassImage},
	{ID: "enhance-image", Category: convert.CategoryImage, Name: "Enhance Image", Description: "Automatic levels and contrast boost", Accept: convert.ClassImage},
	{ID: "grayscale-image", Category: convert.CategoryImage, Name: "Grayscale", Description: "Remove color, keep luminance", Accept: convert.ClassImage},
	{ID: "rotate-image", Category: convert.CategoryImage, Name: "Rotate 90°", Description: "Rotate clockwise by 90 degrees", Accept: convert.ClassImage},
	{ID: "flip-horizontal", Category: convert.CategoryImage, Name: "Flip Horizontal", Description: "Mirror left to right", Accept: convert.ClassImage},
	{ID: "flip-vertical", Category: convert.CategoryImage, Name: "Flip Vertical", Description: "Mirror top to bottom", Accept: convert.ClassImage},
	{ID: "blur-image", Category: convert.CategoryImage, Name: "Blur Image", Description: "Gaussian blur", Accept: convert.ClassImage},
	{ID: "brighten-image", Category: convert.CategoryImage, Name: "Brighten Image", Description: "Increase brightness by 40%", Accept: convert.ClassImage},
	{ID: "pixelate-image", Category: convert.CategoryImage, Name: "Pixelate Image", Description: "Replace the image with 10px blocks", Accept: convert.ClassImage},
	{ID: "image-to-base64", Category: convert.CategoryImage, Name: "Image to Base64", Description: "Encode the image file as base64 text", Accept: convert.ClassImage},
	{ID: "remove-white-background", Category: convert.CategoryImage, Name: "Remove White Background", Description: "Make near-white pixels transparent", Accept: convert.ClassImage},

	// Video tools
	{ID: "trim-video", Category: convert.CategoryVideo, Name: "Trim Video", Description: "Cut a clip from a start time and duration", Accept: convert.ClassVideo},
	{ID: "mute-video", Category: convert.CategoryVideo, Name: "Mute Video", Description: "Remove the audio track", Accept: convert.ClassVideo},
	{ID: "extract-audio", Category: convert.CategoryVideo, Name: "Extract Audio", Description: "Save the audio track as MP3", Accept: convert.ClassVideo},
	{ID: "compress-video", Category: convert.CategoryVideo, Name: "Compress Video", Description: "Re-encode with a smaller H.264 preset", Accept: convert.ClassVideo},
	{ID: "video-to-gif", Category: convert.CategoryVideo, Name: "Video to GIF", Description: "Make a looping animated GIF from a short clip", Accept: convert.ClassVideo},
	{ID: "video-to-base64", Category: convert.CategoryVideo, Name: "Video to Base64", Description: "Encode the video file as base64 text", Accept: convert.ClassVideo},

	// Hash tools. The output is a placeholder, not a real digest.
	{ID: "sha256", Category: convert.CategoryHash, Name: "SHA-256 (demo)", Description: "Placeholder digest, not cryptographic", Accept: ""},
	{ID: "md5", Category: convert.CategoryHash, Name: "MD5 (demo)", Description: "Placeholder digest, not cryptographic", Accept: ""},

	// Document tools served by the generic converter
	{ID: "to-txt", Category: "document", Name: "Convert to TXT", Description: "Uppercase text conversion", Accept: convert.ClassText},
	{ID: "to-md", Category: "document", Name: "Convert to Markdown", Description: "Uppercase text conversion", Accept: convert.ClassText},
}

var index = func() map[key]Tool {
	m := make(map[key]Tool, len(tools))
	for _, t := range tools {
		m[key{t.Category, t.ID}] = t
	}
	return m
}()

// Lookup returns the tool registered under category and id.
func Lookup(category convert.CategoryID, id convert.ToolID) (Tool, bool) {
	t, ok := index[key{category, id}]
	return t, ok
}

// All returns every registered tool in registration order.
func All() []Tool {
	out := make([]Tool, len(tools))
	copy(out, tools)
	return out
}

// ByCategory returns the tools of one category in registration order.
func ByCategory(category convert.CategoryID) []Tool {
	var out []Tool
	for _, t := range tools {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// Categories returns the distinct categories, sorted.
func Categories() []convert.CategoryID {
	seen := make(map[convert.CategoryID]bool)
	var out []convert.CategoryID
	for _, t := range tools {
		if !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
