package web

// The form page is rendered from the attribute schema so the UI can never
// drift from the model's input contract.
const pageTemplate = `
<!DOCTYPE html>
<html>
<head>
    <title>Chronic Kidney Disease Predictor</title>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 20px; background-color: #f5f5f5; }
        .container { max-width: 1100px; margin: 0 auto; }
        .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 20px; border-radius: 10px; margin-bottom: 20px; }
        .header h1 { margin: 0; font-size: 2em; text-align: center; }
        .header p { text-align: center; margin: 8px 0 0; opacity: 0.9; }
        .card { background: white; border-radius: 10px; padding: 20px; box-shadow: 0 4px 6px rgba(0,0,0,0.1); margin-bottom: 20px; }
        .card h3 { margin-top: 0; color: #333; border-bottom: 2px solid #eee; padding-bottom: 10px; }
        .fields { display: grid; grid-template-columns: repeat(auto-fit, minmax(220px, 1fr)); gap: 14px; }
        .field label { display: block; font-weight: 500; color: #666; margin-bottom: 4px; font-size: 0.9em; }
        .field input, .field select { width: 100%; box-sizing: border-box; padding: 8px; border: 1px solid #ccc; border-radius: 6px; }
        .field .error { color: #dc3545; font-size: 0.8em; margin-top: 3px; min-height: 1em; }
        .submit-row { text-align: center; margin: 20px 0; }
        button { background: #667eea; color: white; border: none; padding: 12px 40px; border-radius: 8px; font-size: 1.1em; cursor: pointer; }
        button:hover { background: #5a6fd6; }
        #result { display: none; }
        .verdict { text-align: center; font-size: 1.4em; font-weight: bold; padding: 15px; border-radius: 8px; margin-bottom: 15px; }
        .verdict-high { background: #fdecea; color: #dc3545; }
        .verdict-low { background: #e8f5e9; color: #28a745; }
        .prob-bar { width: 100%; height: 24px; background-color: #eee; border-radius: 12px; overflow: hidden; margin: 10px 0; }
        .prob-fill { height: 100%; transition: width 0.3s ease; }
        .prob-safe { background-color: #28a745; }
        .prob-warning { background-color: #ffc107; }
        .prob-danger { background-color: #dc3545; }
        .indicator { margin: 10px 0; }
        .indicator .name { display: flex; justify-content: space-between; font-size: 0.9em; color: #666; }
        .indicator .track { width: 100%; height: 10px; background: #eee; border-radius: 5px; position: relative; margin-top: 4px; }
        .indicator .marker { position: absolute; top: -3px; width: 4px; height: 16px; background: #667eea; border-radius: 2px; }
        .disclaimer { background: #fff8e1; border-left: 4px solid #ffc107; padding: 12px; font-size: 0.9em; color: #666; border-radius: 4px; }
        .form-error { color: #dc3545; text-align: center; margin: 10px 0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Chronic Kidney Disease Predictor</h1>
            <p>Fill in all fields with the patient's information, then predict.</p>
        </div>

        <form id="prediction-form">
            {{range .Groups}}
            <div class="card">
                <h3>{{.Name}}</h3>
                <div class="fields">
                    {{range .Fields}}
                    <div class="field">
                        <label for="{{.Name}}">{{.Label}}</label>
                        {{if .Categorical}}
                        <select id="{{.Name}}" name="{{.Name}}">
                            <option value=""></option>
                            {{range .Options}}<option value="{{.}}">{{.}}</option>{{end}}
                        </select>
                        {{else}}
                        <input id="{{.Name}}" name="{{.Name}}" type="text" placeholder="{{.Min}} &ndash; {{.Max}}">
                        {{end}}
                        <div class="error" id="err-{{.Name}}"></div>
                    </div>
                    {{end}}
                </div>
            </div>
            {{end}}

            <div class="submit-row">
                <button type="submit">Predict</button>
                <div class="form-error" id="form-error"></div>
            </div>
        </form>

        <div class="card" id="result">
            <h3>Prediction Result</h3>
            <div class="verdict" id="verdict"></div>
            <div class="prob-bar"><div class="prob-fill" id="prob-fill"></div></div>
            <div style="text-align:center" id="prob-text"></div>
            <h3>Key Indicators</h3>
            <div id="indicators"></div>
            <div class="disclaimer">
                This prediction is for informational purposes only and should not be
                used as a substitute for professional medical advice. Please consult
                with a healthcare provider for proper diagnosis and treatment.
            </div>
        </div>
    </div>

    <script>
        const form = document.getElementById('prediction-form');

        form.addEventListener('submit', async function(e) {
            e.preventDefault();
            clearErrors();

            const values = {};
            for (const el of form.querySelectorAll('input, select')) {
                values[el.name] = el.value;
            }

            let resp;
            try {
                resp = await fetch('/api/predict', {
                    method: 'POST',
                    headers: {'Content-Type': 'application/json'},
                    body: JSON.stringify({values: values})
                });
            } catch (err) {
                document.getElementById('form-error').textContent = 'Request failed: ' + err;
                return;
            }

            const data = await resp.json();
            if (resp.status === 400 && data.fields) {
                for (const [field, msg] of Object.entries(data.fields)) {
                    const el = document.getElementById('err-' + field);
                    if (el) el.textContent = msg;
                }
                document.getElementById('form-error').textContent = 'Please correct the highlighted fields.';
                return;
            }
            if (!resp.ok) {
                document.getElementById('form-error').textContent = data.error || 'Prediction failed.';
                return;
            }

            renderResult(data);
        });

        function clearErrors() {
            document.getElementById('form-error').textContent = '';
            for (const el of document.querySelectorAll('.error')) el.textContent = '';
        }

        function renderResult(data) {
            const result = document.getElementById('result');
            result.style.display = 'block';

            const verdict = document.getElementById('verdict');
            verdict.textContent = data.label + ' of Chronic Kidney Disease';
            verdict.className = 'verdict ' + (data.label === 'High Risk' ? 'verdict-high' : 'verdict-low');

            const pct = (data.probability * 100).toFixed(1);
            const fill = document.getElementById('prob-fill');
            fill.style.width = pct + '%';
            if (data.probability >= data.threshold) {
                fill.className = 'prob-fill prob-danger';
            } else if (data.probability >= data.threshold * 0.6) {
                fill.className = 'prob-fill prob-warning';
            } else {
                fill.className = 'prob-fill prob-safe';
            }
            document.getElementById('prob-text').textContent =
                'Predicted probability: ' + pct + '% (model ' + data.model_version + ', ' + data.latency_ms.toFixed(1) + ' ms)';

            const container = document.getElementById('indicators');
            container.innerHTML = '';
            for (const ind of data.indicators) {
                const div = document.createElement('div');
                div.className = 'indicator';
                const pos = Math.min(Math.max((ind.value - ind.min) / (ind.max - ind.min), 0), 1) * 100;
                div.innerHTML =
                    '<div class="name"><span>' + ind.label + '</span><span>' + ind.value + '</span></div>' +
                    '<div class="track"><div class="marker" style="left:' + pos + '%"></div></div>';
                container.appendChild(div);
            }

            result.scrollIntoView({behavior: 'smooth'});
        }
    </script>
</body>
</html>
`
