package web

// verifyHTML collects a stable per-browser device id in localStorage and
// posts it together with the token from the URL.
const verifyHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Verify</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <style>
    body{font-family:Arial, sans-serif; margin:24px;}
    .card{max-width:520px; margin:auto; padding:18px; border:1px solid #ddd; border-radius:12px;}
    button{width:100%; padding:12px; font-size:16px; border-radius:10px; border:0; cursor:pointer;}
    .ok{color:green; font-weight:700;}
    .bad{color:#b00020; font-weight:700;}
  </style>
</head>
<body>
  <div class="card">
    <h2>🔐 Web Verification</h2>
    <p><b>Rule:</b> 1 device = 1 Telegram account</p>
    <button id="btn">✅ Verify Now</button>
    <p id="msg"></p>
    <p id="done" style="display:none;">✅ Done. Go back to Telegram and click <b>Check Verification</b>.</p>
  </div>

<script>
  const params = new URLSearchParams(window.location.search);
  const token = params.get("token") || "";

  function getDeviceId(){
    let id = localStorage.getItem("device_id");
    if(!id){
      id = (crypto.randomUUID ? crypto.randomUUID() :
        'xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx'.replace(/[xy]/g, c => {
          const r = Math.random()*16|0, v = c==='x'?r:(r&0x3|0x8);
          return v.toString(16);
        })
      );
      localStorage.setItem("device_id", id);
    }
    return id;
  }

  document.getElementById("btn").onclick = async () => {
    const msg = document.getElementById("msg");
    msg.textContent = "Verifying...";
    try {
      const res = await fetch("/api/verify", {
        method:"POST",
        headers:{"Content-Type":"application/json"},
        body: JSON.stringify({ token, device_id: getDeviceId() })
      });
      const j = await res.json();
      if(j.ok){
        msg.innerHTML = '<span class="ok">✅ '+j.message+'</span>';
        document.getElementById("done").style.display = "block";
        document.getElementById("btn").disabled = true;
      } else {
        msg.innerHTML = '<span class="bad">❌ '+j.message+'</span>';
      }
    } catch(e){
      msg.innerHTML = '<span class="bad">❌ Network error</span>';
    }
  }
</script>
</body>
</html>
`
