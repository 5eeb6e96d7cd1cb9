// Package pixels holds the pixel level parts of the load pipeline: conversion
// to the canonical NRGBA format, colour correction, translucency and glow
// analysis, and preview generation. Functions here never touch resource state
// and are safe to call from worker goroutines.
package pixels
