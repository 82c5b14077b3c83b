package controller

import "html/template"

// Page shells for the overlay frames. The board embeds these as opaque
// iframes; all the live behavior (HLS playback, geometry fetch and
// render) happens inside them.

var videoPage = template.Must(template.New("video").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Name}} live view</title>
<script src="https://cdn.jsdelivr.net/npm/hls.js@1"></script>
<style>html,body{margin:0;height:100%;background:#000}video{width:100%;height:100%;object-fit:contain}</style>
</head>
<body>
<video id="player" muted autoplay playsinline></video>
<script>
const src = "/video/{{.Name}}.m3u8";
const video = document.getElementById("player");
if (video.canPlayType("application/vnd.apple.mpegurl")) {
  video.src = src;
} else if (Hls.isSupported()) {
  const hls = new Hls();
  hls.loadSource(src);
  hls.attachMedia(video);
}
</script>
</body>
</html>
`))

var modelPage = template.Must(template.New("model").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Name}} current print</title>
<script src="/viewer.js" defer></script>
<style>html,body{margin:0;height:100%;background:#111;color:#ddd}canvas{width:100%;height:100%}</style>
</head>
<body data-model="/model/{{.Name}}.json">
<canvas id="preview"></canvas>
</body>
</html>
`))

type pageData struct {
	Name string
}
