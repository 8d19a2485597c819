package replicate

import "strings"

// Pinned model versions. These are configuration data; the lifecycle treats
// every model identically.
const (
	MotionControlVersion = "0b9053d30c02c3b6574ddf14f33499f7b69302c81954ad86239fa67bc5e52896"
	ImageModelVersion    = "0785fb14f5aaa30eddf06fd49b6cbdaac4541b8854eb314211666e23a29087e3"
	RealESRGANVersion    = "42e594a21b2f4c98faad74e1e6c49a1c8ec2c48df3a0f5a81d49e98f22da896c"
	TopazVersion         = "f4dad23bbe2d0bf4736d2ea8c9156f1911d8eeb511c8d0bb390931e25caaef61"
)

const defaultMotionPrompt = "a person performing the motion naturally"

// MotionControlInput builds the input payload for the motion-control video
// model: animate a character image following a reference clip.
func MotionControlInput(imageURL, videoURL, prompt string) map[string]any {
	if strings.TrimSpace(prompt) == "" {
		prompt = defaultMotionPrompt
	}
	return map[string]any{
		"image":                 imageURL,
		"video":                 videoURL,
		"prompt":                prompt,
		"mode":                  "pro",
		"character_orientation": "image",
	}
}

// ImageInput builds the input payload for the image generation model.
// imageInput carries the character image first, then optional references.
func ImageInput(prompt string, imageInput []string, resolution, aspectRatio string) map[string]any {
	if resolution == "" {
		resolution = "2K"
	}
	if aspectRatio == "" {
		aspectRatio = "2:3"
	}
	return map[string]any{
		"prompt":              prompt,
		"image_input":         imageInput,
		"resolution":          resolution,
		"aspect_ratio":        aspectRatio,
		"output_format":       "jpg",
		"safety_filter_level": "block_only_high",
	}
}

// RealESRGANInput builds the input payload for the real-esrgan upscaler.
// Resolution is one of FHD, 2k, 4k.
func RealESRGANInput(videoURL, resolution string) map[string]any {
	if resolution == "" {
		resolution = "FHD"
	}
	return map[string]any{
		"video_path": videoURL,
		"resolution": resolution,
		"model":      "RealESRGAN_x4plus",
	}
}

// TopazInput builds the input payload for the topaz upscaler, which has its
// own input schema.
func TopazInput(videoURL, resolution string) map[string]any {
	target := "1080p"
	if resolution == "4k" {
		target = "4k"
	}
	return map[string]any{
		"video":             videoURL,
		"target_resolution": target,
		"target_fps":        30,
	}
}
