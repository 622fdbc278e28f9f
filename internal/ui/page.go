package ui

import (
	"github.com/raunakjaimini/chatmate/internal/chat"

	gomponents "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	html "maragu.dev/gomponents/html"
)

const (
	pageTitle  = "LangChain: Chat with SQL DB"
	pageIcon   = "✨"
	pageHeader = "Chat-Mate...Conversational Analytics Chatbot📝"

	progressText = "Generating SQL query..."
)

func chatPage(question string, outcome *chat.Outcome) gomponents.Node {
	return pageShell(
		html.Div(
			data.Signals(map[string]any{"busy": false}),
			html.Form(
				html.Method("post"),
				html.Action("/"),
				html.Label(html.For("question"), gomponents.Text("Enter your question:")),
				html.Input(
					html.Type("text"),
					html.ID("question"),
					html.Name("question"),
					html.Value(question),
					html.AutoComplete("off"),
				),
				html.Button(
					html.Type("submit"),
					html.Class("btn"),
					data.On("click", "$busy = true"),
					gomponents.Text("Submit"),
				),
			),
			html.P(
				html.Class("progress"),
				data.Show("$busy"),
				html.Style("display: none"),
				gomponents.Text(progressText),
			),
			outcomeNode(outcome),
		),
	)
}

func outcomeNode(outcome *chat.Outcome) gomponents.Node {
	if outcome == nil {
		return nil
	}
	if outcome.Warning != "" {
		return html.P(html.Class("flash warning"), gomponents.Text(outcome.Warning))
	}
	if outcome.State != chat.StateSettled {
		return nil
	}
	if outcome.Error != "" {
		return html.Section(
			html.Class("result"),
			html.H3(gomponents.Text("Result:")),
			html.P(html.Class("flash error"), gomponents.Text(outcome.Error)),
		)
	}
	return html.Section(
		html.Class("result"),
		html.H3(gomponents.Text("Result:")),
		html.P(html.Strong(gomponents.Text("Raw Response:")), gomponents.Text(" "+outcome.Answer)),
		gomponents.If(outcome.HasSQL(), gomponents.Group([]gomponents.Node{
			html.H3(gomponents.Text("Generated SQL Query:")),
			html.Pre(html.Code(html.Class("language-sql"), gomponents.Text(outcome.SQL))),
		})),
	)
}

func errorPage(message string) gomponents.Node {
	return pageShell(html.P(html.Class("flash error"), gomponents.Text(message)))
}

func pageShell(body ...gomponents.Node) gomponents.Node {
	return html.HTML(
		html.Lang("en"),
		html.Head(
			html.Meta(html.Charset("utf-8")),
			html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
			html.TitleEl(gomponents.Text(pageTitle)),
			html.Link(html.Rel("icon"), html.Href("data:image/svg+xml,<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 100 100'><text y='.9em' font-size='90'>"+pageIcon+"</text></svg>")),
			html.StyleEl(gomponents.Raw(stylesheet)),
			html.Script(
				html.Type("module"),
				html.Src("https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.7/bundles/datastar.js"),
			),
		),
		html.Body(
			html.Main(
				html.Class("layout"),
				html.H2(gomponents.Text(pageHeader)),
				gomponents.Group(body),
			),
		),
	)
}

const stylesheet = `body{font-family:"Source Sans Pro",sans-serif;margin:0;color:#31333f}
.layout{max-width:730px;margin:0 auto;padding:4rem 1rem}
label{display:block;font-size:.9rem;margin-bottom:.25rem}
input[type=text]{width:100%;box-sizing:border-box;padding:.5rem;border:1px solid #d6d6d9;border-radius:.5rem}
.btn{margin-top:.75rem;padding:.4rem .9rem;border:1px solid #d6d6d9;border-radius:.5rem;background:#fff;cursor:pointer}
.flash{padding:.75rem 1rem;border-radius:.5rem}
.flash.error{background:#ffe9e9;color:#7d353b}
.flash.warning{background:#fffce7;color:#926c05}
pre{background:#f0f2f6;padding:1rem;border-radius:.5rem;overflow-x:auto}`
