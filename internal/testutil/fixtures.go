package testutil

// ResultsPage holds a class label, a summary with a total of 3, a header
// row, two usable rows (one without a mark type), and one short row.
const ResultsPage = `<html>
<head><title>Resultado da Pesquisa</title></head>
<body>
<div class="classe-nice">NCL(12) 25 - Vestuário, calçados e chapelaria</div>
<div class="resultado-busca">Foram encontrados 3 processos que satisfazem a pesquisa</div>
<table class="tabela-processo">
  <tr><th>Número</th><th>Marca</th><th>Situação</th><th>Titular</th><th>Apresentação</th></tr>
  <tr><td> 912345678 </td><td>ACME</td><td>Registro vigente</td><td>ACME COMERCIO LTDA</td><td>Nominativa</td></tr>
  <tr><td>923456789</td><td>ACME BRASIL</td><td>Arquivado</td><td>JOAO DA SILVA</td></tr>
  <tr><td>934567890</td><td>ACMEX</td></tr>
</table>
</body>
</html>`

// OppositionPage has a single candidate awaiting opposition review.
const OppositionPage = `<html><body>
<div class="resultado-busca">1 processo</div>
<table class="tabela-processo">
  <tr><th>Número</th><th>Marca</th><th>Situação</th><th>Titular</th></tr>
  <tr><td>945678901</td><td>ACMI</td><td>Aguardando análise de oposição</td><td>ACMI LTDA</td></tr>
</table>
</body></html>`

// EmptyPage is a results page with no matches.
const EmptyPage = `<html><body>
<div class="resultado-busca">Nenhum resultado foi encontrado para a sua pesquisa.</div>
</body></html>`

// CaptchaPage is the anti-automation challenge served instead of results.
const CaptchaPage = `<html><body>
<p>Por favor, confirme que você não é um robô.</p>
<form name="captcha" method="post" action="/pePI/servlet/CaptchaServlet">
  <img src="/pePI/captcha.jpg"><input type="text" name="captcha">
</form>
</body></html>`

// Latin1Page is a one-row page encoded as ISO-8859-1.
var Latin1Page = []byte("<html><body><table class=\"tabela-processo\">" +
	"<tr><th>N\xfamero</th><th>Marca</th><th>Situa\xe7\xe3o</th><th>Titular</th></tr>" +
	"<tr><td>956789012</td><td>A\xc7A\xcd</td><td>Em exame de m\xe9rito</td><td>JOS\xc9 LTDA</td></tr>" +
	"</table></body></html>")
