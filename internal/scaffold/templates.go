package scaffold

// Feature package templates. Paths are relative to src/<ns_safe>/<name>/.

const initTemplate = `from splent_framework.blueprints.base_blueprint import create_blueprint

{{ .Name }}_bp = create_blueprint(__name__)
`

const routesTemplate = `from flask import render_template

from {{ .Import }} import {{ .Name }}_bp
from {{ .Import }}.services import {{ .Pascal }}Service

{{ .Name }}_service = {{ .Pascal }}Service()


@{{ .Name }}_bp.route("/{{ .Name }}", methods=["GET"])
def index():
    return render_template("{{ .Name }}/index.html")
`

const modelsTemplate = `from splent_framework.db import db


class {{ .Pascal }}(db.Model):
    id = db.Column(db.Integer, primary_key=True)

    def __repr__(self):
        return f"{{ .Pascal }}<{self.id}>"
`

const repositoriesTemplate = `from {{ .Import }}.models import {{ .Pascal }}
from splent_framework.repositories.BaseRepository import BaseRepository


class {{ .Pascal }}Repository(BaseRepository):
    def __init__(self):
        super().__init__({{ .Pascal }})
`

const servicesTemplate = `from {{ .Import }}.repositories import {{ .Pascal }}Repository
from splent_framework.services.BaseService import BaseService


class {{ .Pascal }}Service(BaseService):
    def __init__(self):
        super().__init__({{ .Pascal }}Repository())
`

const formsTemplate = `from flask_wtf import FlaskForm
from wtforms import SubmitField


class {{ .Pascal }}Form(FlaskForm):
    submit = SubmitField("Save {{ .Name }}")
`

const seedersTemplate = `from splent_framework.seeders.BaseSeeder import BaseSeeder


class {{ .Pascal }}Seeder(BaseSeeder):
    def run(self):
        pass
`

const indexHTMLTemplate = `{% extends "base_template.html" %}

{% block title %}View {{ .Name }}{% endblock %}

{% block content %}
<h1>{{ .Name }}</h1>
{% endblock %}

{% block scripts %}
<script src="{{"{{"}} url_for('{{ .Name }}.assets', subfolder='dist', filename='{{ .Name }}.bundle.js') {{"}}"}}"></script>
{% endblock %}
`

const scriptsJSTemplate = `console.log("Hi, I am a script loaded from {{ .Name }}");
`

const webpackTemplate = `const path = require('path');

module.exports = {
  entry: path.resolve(__dirname, 'scripts.js'),
  output: {
    filename: '{{ .Name }}.bundle.js',
    path: path.resolve(__dirname, '../dist'),
  },
  mode: 'development',
};
`

const testUnitTemplate = `import pytest


@pytest.fixture(scope="module")
def test_client(test_client):
    yield test_client


def test_sample_assertion(test_client):
    greeting = "Hello, World!"
    assert greeting == "Hello, World!", "The greeting does not coincide with 'Hello, World!'"
`

const locustTemplate = `from locust import HttpUser, TaskSet, task


class {{ .Pascal }}Behavior(TaskSet):
    @task
    def index(self):
        response = self.client.get("/{{ .Name }}")
        if response.status_code != 200:
            print(f"{{ .Pascal }} index failed: {response.status_code}")


class {{ .Pascal }}User(HttpUser):
    tasks = [{{ .Pascal }}Behavior]
    min_wait = 5000
    max_wait = 9000
    host = "http://localhost:5000"
`

const seleniumTemplate = `from selenium.webdriver.common.by import By

from splent_framework.environment.host import get_host_for_selenium_testing
from splent_framework.selenium.common import initialize_driver, close_driver


def test_{{ .Name }}_index():
    driver = initialize_driver()
    try:
        host = get_host_for_selenium_testing()
        driver.get(f"{host}/{{ .Name }}")
        driver.find_element(By.TAG_NAME, "h1")
    finally:
        close_driver(driver)
`

// Repository root templates.

const gitignoreTemplate = `__pycache__/
*.py[cod]
*.egg-info/
build/
dist/
.env
node_modules/
src/{{ .NamespaceSafe }}/{{ .Name }}/assets/dist/
`

const manifestInTemplate = `recursive-include src/{{ .NamespaceSafe }}/{{ .Name }}/templates *
recursive-include src/{{ .NamespaceSafe }}/{{ .Name }}/assets *
`
