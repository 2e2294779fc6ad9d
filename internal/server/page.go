package server

const demoPage = `<!DOCTYPE html>
<html><head><title>essence</title>
<style>
body{font-family:monospace;background:#0a0a0a;color:#00ff41;padding:20px}
.demo{border:1px solid #00ff41;padding:10px;margin:10px 0}
button{background:#00ff41;color:#0a0a0a;border:none;padding:10px;cursor:pointer}
input{background:#111;color:#00ff41;border:1px solid #00ff41;padding:8px;width:60%}
</style>
</head><body>
<h1>essence</h1>
<div class="demo">
<h3>Execute</h3>
<input id="code" value="result := double(21)">
<button onclick="run('/api/execute')">Execute</button>
<button onclick="run('/api/classify')">Classify</button>
<pre id="exec-result"></pre>
</div>
<div class="demo">
<h3>Event</h3>
<button onclick="emit()">Emit test_event</button>
<pre id="event-result"></pre>
</div>
<div class="demo">
<h3>Status</h3>
<button onclick="fetchStatus()">Get Status</button>
<pre id="api-result"></pre>
</div>
<script>
async function post(path, body){
const r=await fetch(path,{method:'POST',headers:{'Content-Type':'application/json'},body:JSON.stringify(body)});
return JSON.stringify(await r.json(),null,2);
}
async function run(path){
document.getElementById('exec-result').textContent=await post(path,{code:document.getElementById('code').value});
}
async function emit(){
document.getElementById('event-result').textContent=await post('/api/events/test_event',{code:'"Hello from the page"'});
}
async function fetchStatus(){
const r=await fetch('/api/status');
document.getElementById('api-result').textContent=JSON.stringify(await r.json(),null,2);
}
</script></body></html>
`
