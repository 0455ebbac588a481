package report

const htmlTemplate = `<!DOCTYPE html>
<html lang="ko">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>견적 생성 리포트 - {{.Result.Project.DisplayName}}</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"></script>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: "Pretendard", "Malgun Gothic", -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
            background-color: #f5f5f5;
            color: #333;
            line-height: 1.6;
        }

        #app {
            max-width: 1100px;
            margin: 0 auto;
            padding: 20px;
        }

        header {
            background: white;
            padding: 20px;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
            display: flex;
            justify-content: space-between;
            align-items: center;
            margin-bottom: 20px;
        }

        header h1 {
            font-size: 22px;
            color: #2c3e50;
        }

        header p {
            font-size: 13px;
            color: #7f8c8d;
        }

        .dashboard {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(180px, 1fr));
            gap: 15px;
            margin-bottom: 20px;
        }

        .metric-card {
            background: white;
            padding: 18px;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }

        .metric-label {
            font-size: 12px;
            color: #7f8c8d;
            text-transform: uppercase;
        }

        .metric-value {
            font-size: 22px;
            font-weight: bold;
            color: #2c3e50;
        }

        section {
            background: white;
            padding: 20px;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
            margin-bottom: 20px;
        }

        section h2 {
            font-size: 17px;
            margin-bottom: 12px;
            color: #2c3e50;
        }

        table {
            width: 100%;
            border-collapse: collapse;
            font-size: 14px;
        }

        th, td {
            padding: 8px 10px;
            border-bottom: 1px solid #eee;
            text-align: left;
        }

        td.num, th.num {
            text-align: right;
            font-variant-numeric: tabular-nums;
        }

        .badge {
            display: inline-block;
            padding: 2px 8px;
            border-radius: 10px;
            color: white;
            font-size: 12px;
        }

        .up { color: #3E8635; }
        .down { color: #C9190B; }

        .chart-wrap {
            max-width: 360px;
            margin: 0 auto;
        }

        footer {
            text-align: center;
            font-size: 12px;
            color: #7f8c8d;
            padding: 10px;
        }
    </style>
</head>
<body>
    <div id="app">
        <header>
            <div>
                <h1>{{.Result.Project.DisplayName}}</h1>
                <p>{{.Result.Project.DisplayClient}} · 템플릿 {{.Result.Template}} ({{.Result.Variant}})</p>
            </div>
            <p>생성: {{.GeneratedAt.Format "2006-01-02 15:04"}}</p>
        </header>

        <div class="dashboard">
            <div class="metric-card">
                <div class="metric-label">합계 (VAT 포함)</div>
                <div class="metric-value">{{won .Result.Breakdown.Total}}</div>
            </div>
            <div class="metric-card">
                <div class="metric-label">예산</div>
                <div class="metric-value">{{if .Result.Budget.Resolved}}{{won .Result.Budget.Amount}}{{else}}{{or .Result.Budget.RawText "미정"}}{{end}}</div>
            </div>
            <div class="metric-card">
                <div class="metric-label">AI 제안 합계</div>
                <div class="metric-value">{{won .Proposed}}</div>
            </div>
            <div class="metric-card">
                <div class="metric-label">금액 조정</div>
                <div class="metric-value">{{len .Result.Adjustments}}건</div>
            </div>
            <div class="metric-card">
                <div class="metric-label">토큰 / 비용</div>
                <div class="metric-value">{{.Result.TokensUsed}} / ${{printf "%.4f" .Result.Cost}}</div>
            </div>
        </div>

        <section>
            <h2>비용 항목</h2>
            <table>
                <thead>
                    <tr><th>항목</th><th>분류</th><th class="num">금액</th></tr>
                </thead>
                <tbody>
                {{range .Result.Items}}
                    <tr>
                        <td>{{.Label}}{{if .Detail}}<br><small>{{.Detail}}</small>{{end}}</td>
                        <td><span class="badge" style="background: {{categoryColor .Category}}">{{.Category}}</span></td>
                        <td class="num">{{won .Amount}}</td>
                    </tr>
                {{end}}
                </tbody>
                <tfoot>
                    <tr><th colspan="2">Sub Total</th><th class="num">{{won .Result.Breakdown.SubTotal}}</th></tr>
                    <tr><th colspan="2">VAT</th><th class="num">{{won .Result.Breakdown.VAT}}</th></tr>
                    <tr><th colspan="2">Total</th><th class="num">{{won .Result.Breakdown.Total}}</th></tr>
                </tfoot>
            </table>
        </section>

        {{if .Result.Adjustments}}
        <section>
            <h2>예산 맞춤 조정 ({{won .AdjustedNet}})</h2>
            <table>
                <thead>
                    <tr><th>단계</th><th>항목</th><th class="num">변경 전</th><th class="num">변경 후</th><th class="num">차이</th></tr>
                </thead>
                <tbody>
                {{range .Result.Adjustments}}
                    <tr>
                        <td>{{stepLabel .Step}}</td>
                        <td>{{.Label}}</td>
                        <td class="num">{{won .From}}</td>
                        <td class="num">{{won .To}}</td>
                        <td class="num {{if gt .To .From}}up{{else}}down{{end}}">{{delta .}}</td>
                    </tr>
                {{end}}
                </tbody>
            </table>
        </section>
        {{end}}

        <section>
            <h2>분류별 비중</h2>
            <div class="chart-wrap"><canvas id="categoryChart"></canvas></div>
            <table>
                {{range .Categories}}
                <tr><td>{{.Category}}</td><td class="num">{{won .Amount}}</td><td class="num">{{percent .Percent}}</td></tr>
                {{end}}
            </table>
        </section>

        {{if .Result.Tiers}}
        <section>
            <h2>패키지</h2>
            <table>
                {{range .Result.Tiers}}
                <tr><td>{{.Name.DisplayName}}</td><td>{{.Title}}</td><td class="num">{{won .Price}}</td></tr>
                {{end}}
            </table>
        </section>
        {{end}}

        {{if .Result.Timeline}}
        <section>
            <h2>일정 ({{.Result.Duration}})</h2>
            <table>
                {{range .Result.Timeline}}
                <tr>
                    <td>{{.Label}}</td>
                    <td>{{.Content}}</td>
                    <td>{{if .Start.IsZero}}{{.Raw}}{{else}}{{date .Start}} ~ {{date .End}}{{end}}</td>
                </tr>
                {{end}}
            </table>
        </section>
        {{end}}

        {{if .Result.Installments}}
        <section>
            <h2>지급 조건</h2>
            <table>
                {{range .Result.Installments}}
                <tr><td>{{.Label}}</td><td>{{.Ratio}}</td><td class="num">{{won .Amount}}</td><td>{{.When}}</td></tr>
                {{end}}
            </table>
        </section>
        {{end}}

        {{if .Result.Skipped}}
        <section>
            <h2>템플릿에 없는 영역</h2>
            <p>{{range $i, $r := .Result.Skipped}}{{if $i}}, {{end}}{{$r}}{{end}}</p>
        </section>
        {{end}}

        <footer>
            estimate-ai · 소요 시간 {{.Result.Elapsed}}
        </footer>
    </div>

    <script>
        new Chart(document.getElementById('categoryChart'), {
            type: 'doughnut',
            data: {
                labels: [{{range .Categories}}'{{.Category}}',{{end}}],
                datasets: [{
                    data: [{{range .Categories}}{{.Amount}},{{end}}],
                    backgroundColor: [{{range .Categories}}'{{categoryColor .Category}}',{{end}}]
                }]
            },
            options: { plugins: { legend: { position: 'bottom' } } }
        });
    </script>
</body>
</html>
`
