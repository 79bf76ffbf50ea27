// Package shaders holds the GLSL sources of the character programs.
package shaders

// Vertex is shared by every character program. Positions and normals arrive
// already skinned.
const Vertex = `#version 410 core
layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec3 aNormal;
layout(location = 2) in vec2 aUV;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProjection;

out vec2 vUV;
out vec3 vNormal;
out vec3 vViewPosition;

void main() {
    vec4 world = uModel * vec4(aPosition, 1.0);
    vec4 view = uView * world;
    vUV = aUV;
    vNormal = normalize(mat3(uView * uModel) * aNormal);
    vViewPosition = -view.xyz;
    gl_Position = uProjection * view;
}
`

// Toon is the cel-shaded fragment program. One of TOON_FACE, TOON_HAIR or
// TOON_BODY is defined at compile time.
const Toon = `#version 410 core
in vec2 vUV;
in vec3 vNormal;
in vec3 vViewPosition;

uniform sampler2D uMap;
uniform float uHasMap;
uniform vec3 uColor;

uniform vec3 uKeyLightDir;
uniform vec3 uKeyLightColor;
uniform float uKeyLightIntensity;
uniform float uAmbientIntensity;

uniform float uShadowDarkness;
uniform vec3 uShadowColor;
uniform vec3 uRimColor;
uniform float uRimStrength;
uniform float uRimPower;

#ifdef TOON_FACE
uniform float uShadowFeather;
uniform float uUseLambert;
uniform float uHasFaceSDF;
#else
uniform float uShadowThreshold;
uniform float uShadowSoftness;
uniform float uSaturation;
uniform float uTemperature;
uniform float uTint;
uniform float uBrightness;
#endif

#ifdef TOON_HAIR
uniform float uHairSpecularPower;
uniform float uHairSpecularStrength;
uniform float uHairSpecularShift;
uniform vec3 uHairSpecularColor;
#endif

#ifdef TOON_BODY
uniform float uFillLightIntensity;
uniform float uRimLightIntensity;
uniform float uSpecularStrength;
uniform float uSpecularPower;
uniform float uUseRamp;
uniform float uMatCapStrength;
#endif

out vec4 fragColor;

vec3 grade(vec3 c) {
#ifdef TOON_FACE
    return c;
#else
    c *= uBrightness;
    c.r += uTemperature * 0.1;
    c.b -= uTemperature * 0.1;
    c.g += uTint * 0.1;
    float lum = dot(c, vec3(0.299, 0.587, 0.114));
    return mix(vec3(lum), c, uSaturation);
#endif
}

void main() {
    vec4 tex = uHasMap > 0.5 ? texture(uMap, vUV) : vec4(uColor, 1.0);
    if (tex.a < 0.1) discard;

    vec3 base = tex.rgb;
    vec3 n = normalize(vNormal);
    vec3 v = normalize(vViewPosition);
    vec3 l = normalize(uKeyLightDir);
    float halfLambert = dot(n, l) * 0.5 + 0.5;

#ifdef TOON_FACE
    float mask = uUseLambert > 0.5
        ? smoothstep(0.5 - uShadowFeather, 0.5 + uShadowFeather, halfLambert)
        : 1.0;
#else
    float mask = smoothstep(uShadowThreshold - uShadowSoftness, uShadowThreshold + uShadowSoftness, halfLambert);
#endif

    vec3 shadow = base * mix(vec3(1.0), uShadowColor, uShadowDarkness) * (1.0 - uShadowDarkness);
    vec3 lit = base * uKeyLightIntensity;
    vec3 color = mix(shadow, lit, mask) * uKeyLightColor;
    color += base * uAmbientIntensity;

#ifdef TOON_HAIR
    vec3 t = normalize(cross(n, vec3(0.0, 0.0, 1.0)) + n * uHairSpecularShift);
    vec3 h = normalize(l + v);
    float th = dot(t, h);
    float spec = pow(sqrt(max(1.0 - th * th, 0.0)), uHairSpecularPower);
    color += uHairSpecularColor * smoothstep(0.5, 0.7, spec) * uHairSpecularStrength * mask;
#endif

#ifdef TOON_BODY
    vec3 fillDir = normalize(vec3(-0.7, 0.3, -0.5));
    color += base * max(dot(n, fillDir), 0.0) * uFillLightIntensity;
    vec3 backDir = normalize(vec3(0.0, 0.3, 0.8));
    color += base * max(dot(n, backDir), 0.0) * uRimLightIntensity;
    vec3 h = normalize(l + v);
    float spec = pow(max(dot(n, h), 0.0), uSpecularPower);
    color += uKeyLightColor * smoothstep(0.4, 0.6, spec) * uSpecularStrength * 0.5;
#endif

    float rim = pow(1.0 - max(dot(n, v), 0.0), uRimPower) * uRimStrength;
    rim *= mask * 0.7 + 0.3;
    color += uRimColor * rim * 0.25;

    fragColor = vec4(grade(color), tex.a);
}
`

// Fallback is a flat-lit textured program used when a category program
// fails to build.
const Fallback = `#version 410 core
in vec2 vUV;
in vec3 vNormal;
in vec3 vViewPosition;

uniform sampler2D uMap;
uniform float uHasMap;
uniform vec3 uColor;
uniform vec3 uKeyLightDir;
uniform float uKeyLightIntensity;
uniform float uAmbientIntensity;

out vec4 fragColor;

void main() {
    vec4 tex = uHasMap > 0.5 ? texture(uMap, vUV) : vec4(uColor, 1.0);
    vec3 n = normalize(gl_FrontFacing ? vNormal : -vNormal);
    float diffuse = max(dot(n, normalize(uKeyLightDir)), 0.0) * uKeyLightIntensity;
    fragColor = vec4(tex.rgb * (uAmbientIntensity + diffuse), tex.a);
}
`
