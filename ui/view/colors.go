package view

import "image/color"

// previewBg mirrors theme.ColorPreviewBg for image rendering.
var previewBg = color.NRGBA{A: 0xff}

// PreviewBackground is the letterbox color used by the frame presenter.
func PreviewBackground() color.Color { return previewBg }
