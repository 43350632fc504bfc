// Package filehttp реализует HTTP API файлового сервиса поверх локального каталога.
// Основные эндпоинты:
//   - POST /files/ — multipart-загрузка нового файла (поле file, необязательное поле path с каталогом назначения).
//   - PUT /files/{path} — замена или создание файла из multipart-поля file либо сырого тела.
//   - GET /files/{path} — содержимое файла как текст в JSON.
//   - DELETE /files/{path} — удаление одного файла.
//   - GET /list/?path= — плоский отсортированный список файлов под каталогом.
//   - GET /pull/{path} — файл как application/octet-stream с именем для сохранения.
//   - GET /health — объём и число хранимых файлов.
//   - POST /admin/gc — ручная уборка staging-файлов прерванных записей.
//
// Запись прерванного запроса не публикуется: содержимое сначала пишется во временный
// файл и появляется под целевым именем только после полного приёма тела. Если процесс
// упал посреди записи, на диске может остаться staging-файл; его удаляет GC.
package filehttp
