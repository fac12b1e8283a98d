package monitor

// dashboardHTML is the /debug/charts index page.
const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Wallmask Debug Charts</title>
    <style>
        body { background: #111; color: #eee; font-family: sans-serif; margin: 1em; }
        iframe { border: 1px solid #444; background: #1b1b1b; display: block; margin-bottom: 1em; }
        a { color: #6ece58; }
    </style>
</head>
<body>
    <h1>Wallmask Debug Charts</h1>
    <p><a href="/">Status</a></p>
    <iframe src="/debug/charts/sweep" width="940" height="940"></iframe>
    <iframe src="/debug/charts/calibrations" width="1240" height="640"></iframe>
</body>
</html>
`
