package taskname

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestShortCode(t *testing.T) {
	require.Equal(t, "SF", ShortCode("Short Form Videos"))
	require.Equal(t, "SF", ShortCode("  short   form videos "))
	require.Equal(t, "LF", ShortCode("Long Form Videos"))
	require.Equal(t, "HP", ShortCode("Graphic Images"))
	require.Equal(t, "PodcastClips", ShortCode("Podcast Clips"))
}

func TestClientSlug(t *testing.T) {
	require.Equal(t, "AcmeMedia", ClientSlug("Acme Media"))
	require.Equal(t, "CafeNuMedia", ClientSlug("Café Ñu Media"))
	require.Equal(t, "JoeAndCo", ClientSlug("Joe & Co"))
	require.Equal(t, "YouTubePros", ClientSlug("YouTube Pros"))
	require.Equal(t, "NuStudioTV", ClientSlug("ñu studio TV"))
	require.Equal(t, "Studio42", ClientSlug("studio 42"))
	require.Empty(t, ClientSlug("  "))
	require.Empty(t, ClientSlug("!!!"))
}

func TestTitle(t *testing.T) {
	due := time.Date(2025, time.September, 3, 10, 0, 0, 0, time.UTC)
	require.Equal(t, "AcmeMedia_09-03-2025_SF7", Title("Acme Media", due, "Short Form Videos", 7))
	require.Equal(t, "AcmeMedia_09-03-2025_Reels1", Title("Acme Media", due, "Reels", 1))
}

func TestOutputFolder(t *testing.T) {
	require.Equal(t, "Acme Media/outputs/AcmeMedia_09-03-2025_SF1/", OutputFolder("Acme Media/", "AcmeMedia_09-03-2025_SF1"))
	require.Equal(t, "outputs/X/", OutputFolder("", "X"))
}
